package memory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/aretw0/gazette/pkg/adapters/memory"
	"github.com/aretw0/gazette/pkg/domain"
	"github.com/aretw0/gazette/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunSessionStoreContract(t, store)
}

func TestMemoryStore_IsolatesCallers(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	detail := &domain.SessionDetail{SessionID: "s1", Parameters: domain.DefaultParameters()}
	require.NoError(t, store.Save(ctx, detail))

	detail.Parameters.Tone = "mutated"
	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultTone, loaded.Parameters.Tone)
}

func TestSink_ConcurrentAppend(t *testing.T) {
	sink := memory.NewSink()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(seq int) {
			defer wg.Done()
			_ = sink.Append(ctx, "s1", domain.DecisionEvent{Seq: seq})
			_ = sink.WriteRow(ctx, domain.LogRow{SessionID: "s1"})
		}(i)
	}
	wg.Wait()

	assert.Len(t, sink.Events("s1"), 50)
	assert.Len(t, sink.Rows(), 50)
}
