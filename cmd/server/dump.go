package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

func newDumpCommand() *cobra.Command {
	var (
		addr    string
		all     bool
		client  bool
		pkg     string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the activity report of a running supervisor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := resty.New().
				SetTimeout(timeout).
				R().
				SetContext(cmd.Context()).
				SetQueryParams(map[string]string{
					"all":     strconv.FormatBool(all),
					"client":  strconv.FormatBool(client),
					"package": pkg,
				}).
				Get(addr + "/dump")
			if err != nil {
				return fmt.Errorf("failed to reach supervisor: %w", err)
			}
			if resp.IsError() {
				return fmt.Errorf("supervisor returned %s", resp.Status())
			}
			_, err = cmd.OutOrStdout().Write(resp.Body())
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&addr, "addr", "http://localhost:8000", "Supervisor admin API address")
	flags.BoolVarP(&all, "all", "a", false, "Full listing instead of the brief one")
	flags.BoolVarP(&client, "client", "c", false, "Include live dumps from hosting processes")
	flags.StringVarP(&pkg, "package", "p", "", "Only list activities of this package")
	flags.DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")
	return cmd
}
