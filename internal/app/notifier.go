package app

import (
	"github.com/rs/zerolog/log"

	"github.com/vocably/vocably/internal/core"
)

// DirectNotifier pushes each snapshot to every registered observer.
// Delivery is at most once: closed or full connections miss the frame.
type DirectNotifier struct {
	Registry *Registry
	Policy   Policy
}

func NewDirectNotifier(reg *Registry, policy Policy) *DirectNotifier {
	if policy == nil {
		policy = LossyPolicy{}
	}
	return &DirectNotifier{Registry: reg, Policy: policy}
}

func (n *DirectNotifier) Broadcast(snap core.Snapshot) {
	frame, err := core.EncodeCounts(snap)
	if err != nil {
		log.Error().Err(err).Str("module", "app.notifier").Msg("encode counts")
		return
	}
	sent, dropped := 0, 0
	for _, o := range n.Registry.Observers() {
		if err := o.Signal.TrySend(frame); err != nil {
			dropped++
			if n.Policy.OnBackPressure(o) == KickObserver {
				n.Registry.Cancel(o.SID)
			}
			continue
		}
		sent++
	}
	log.Debug().Str("module", "app.notifier").Int("sent_to", sent).Int("dropped", dropped).Msg("broadcast result")
}

// NopNotifier is used when nothing listens for pushes.
type NopNotifier struct{}

func (NopNotifier) Broadcast(core.Snapshot) {}
