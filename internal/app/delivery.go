package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/hverma/ringline/internal/core"
	"github.com/hverma/ringline/internal/domain"
	"github.com/hverma/ringline/internal/metrics"
)

// Delivery fans one logical event out to every live connection of a target
// user. A connection whose send fails is treated as implicitly disconnected
// and evicted from the registry.
type Delivery struct {
	registry *Registry

	// OnEvict fires when a failed send removed the user's last connection.
	// Wired to Engine.Disconnect at startup; invoked with no locks held.
	OnEvict func(uid domain.UserID)
}

func NewDelivery(reg *Registry) *Delivery {
	return &Delivery{registry: reg}
}

func (d *Delivery) Deliver(target domain.UserID, v any) core.DeliveryReport {
	return d.DeliverExcept(target, nil, v)
}

// DeliverExcept skips one connection of the target, used to keep the
// device that triggered an event from echoing it back to itself.
func (d *Delivery) DeliverExcept(target domain.UserID, except core.SignalConnection, v any) core.DeliveryReport {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.delivery").Msg("marshal outbound event")
		return core.DeliveryReport{}
	}

	var rep core.DeliveryReport
	for _, conn := range d.registry.ConnectionsFor(target) {
		if conn == except {
			continue
		}
		if err := conn.TrySend(core.Frame(b)); err != nil {
			rep.Failed = append(rep.Failed, conn)
			uid, wasLast := d.registry.Unregister(conn)
			conn.Close()
			metrics.DeliveryFailuresTotal.Inc()
			if wasLast && d.OnEvict != nil {
				d.OnEvict(uid)
			}
			continue
		}
		rep.Delivered++
		metrics.DeliveredFramesTotal.Inc()
	}
	if len(rep.Failed) > 0 {
		log.Warn().Str("module", "app.delivery").Str("user", string(target)).
			Int("delivered", rep.Delivered).Int("failed", len(rep.Failed)).Msg("partial fan-out")
	}
	return rep
}
