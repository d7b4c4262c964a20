package eventbus

import (
	"encoding/json"
	"log/slog"

	"github.com/jupiterclapton/cercle/internal/core/domain"
	"github.com/jupiterclapton/cercle/internal/core/ports"
)

// RegistryBus pousse un event vers TOUTES les connexions live d'un
// utilisateur. At-most-once par connexion, best-effort : pas de retry, pas
// d'ack, un write raté se loggue et c'est tout — la persistance a déjà eu
// lieu en amont et reste l'enregistrement qui fait foi.
type RegistryBus struct {
	registry ports.ConnectionRegistry
}

func NewRegistryBus(registry ports.ConnectionRegistry) *RegistryBus {
	return &RegistryBus{registry: registry}
}

func (b *RegistryBus) PushToUser(userID string, event domain.Event) {
	conns := b.registry.ConnectionsFor(userID)
	if len(conns) == 0 {
		// destinataire offline : rien à faire, le record persisté attendra
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("event marshal failed", "type", event.Type, "error", err)
		return
	}

	for _, c := range conns {
		if err := c.Send(data); err != nil {
			// connexion devenue stale entre le snapshot et le write
			slog.Warn("push dropped", "type", event.Type, "user", userID, "error", err)
		}
	}
}
