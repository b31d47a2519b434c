package signal

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/vocably/vocably/internal/core"
	"github.com/vocably/vocably/internal/domain"
)

type watchingMessage struct {
	Type string         `json:"type"`
	Room *domain.RoomID `json:"room"`
}

func (ctl *CountsWSController) handlePing(
	conn *WsSignalConn,
) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	}
	ctl.sendJSON(conn, resp)
}

func (ctl *CountsWSController) handleWatch(sid core.SessionID, conn *WsSignalConn, room string) {
	if room == "" {
		ctl.sendError(conn, "room required")
		return
	}
	ctl.watch(sid, conn, domain.RoomID(room))
}

func (ctl *CountsWSController) watch(sid core.SessionID, conn *WsSignalConn, room domain.RoomID) {
	if err := ctl.Orch.Watch(sid, room); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("room_id", string(room)).Msg("watch")
		if errors.Is(err, domain.ErrObserverNotBound) {
			ctl.sendError(conn, "not_bound")
			return
		}
		ctl.sendError(conn, "bad_payload")
		return
	}
	ctl.sendJSON(conn, watchingMessage{Type: "watching", Room: &room})
}

func (ctl *CountsWSController) handleUnwatch(sid core.SessionID, conn *WsSignalConn) {
	ctl.Orch.Unwatch(sid)
	ctl.sendJSON(conn, watchingMessage{Type: "watching"})
}
