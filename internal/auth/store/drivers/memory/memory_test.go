package memory_test

import (
	"testing"

	"github.com/aussiebroadwan/authserver/internal/auth/store"
	"github.com/aussiebroadwan/authserver/internal/auth/store/drivers/memory"
	"github.com/aussiebroadwan/authserver/internal/auth/store/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return memory.NewStore()
	})
}
