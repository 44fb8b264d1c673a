package process

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndGet(t *testing.T) {
	table := NewTable(100)

	p := table.Register("com.mail", 10010, "http://127.0.0.1:9000", false)
	assert.Equal(t, 100, p.PID)
	assert.True(t, p.Alive)
	assert.True(t, p.Reachable())

	got, err := table.Get(100)
	require.NoError(t, err)
	assert.Same(t, p, got)

	_, err = table.Get(101)
	assert.ErrorIs(t, err, ErrProcessNotFound)
}

func TestMarkDead(t *testing.T) {
	table := NewTable(1)
	p := table.Register("com.mail", 0, "", false)

	dead, err := table.MarkDead(p.PID)
	require.NoError(t, err)
	assert.False(t, dead.Alive)
	assert.False(t, dead.Reachable())
	assert.Empty(t, table.List())

	_, err = table.MarkDead(p.PID)
	assert.ErrorIs(t, err, ErrProcessNotFound)
}

func TestListOrdered(t *testing.T) {
	table := NewTable(0)
	for _, name := range []string{"a", "b", "c"} {
		table.Register(name, 0, "", false)
	}
	_, err := table.MarkDead(2)
	require.NoError(t, err)

	list := table.List()
	require.Len(t, list, 2)
	assert.Equal(t, 1, list[0].PID)
	assert.Equal(t, 3, list[1].PID)
}

func TestConcurrentRegister(t *testing.T) {
	table := NewTable(1)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			table.Register("p", 0, "", false)
		}()
	}
	wg.Wait()

	assert.Len(t, table.List(), 50)
}
