package api

import (
	"encoding/json"

	"github.com/yegors/co-pilot/internal/websocket"
	"github.com/yegors/co-pilot/pkg/logger"
)

// wsItemAction identifies a checklist item in an inbound websocket message
type wsItemAction struct {
	Phase  string `json:"phase"`
	ItemID string `json:"item_id"`
}

// wsPhaseAction carries a phase selection in an inbound websocket message
type wsPhaseAction struct {
	Phase string `json:"phase"`
}

// wsModeAction carries a mode selection in an inbound websocket message
type wsModeAction struct {
	Mode string `json:"mode"`
}

// HandleClientMessage dispatches pilot actions arriving over the websocket.
// The message set mirrors the REST mutation endpoints so a client can drive
// everything over one connection.
func (h *Handler) HandleClientMessage(msg *websocket.Message) {
	switch msg.Type {
	case "check_item":
		h.handleItemAction(msg, h.checklistService.CheckItem)

	case "uncheck_item":
		h.handleItemAction(msg, h.checklistService.UncheckItem)

	case "toggle_item":
		h.handleItemAction(msg, h.checklistService.ToggleItem)

	case "set_phase":
		var action wsPhaseAction
		if err := json.Unmarshal(msg.Data, &action); err != nil {
			h.logger.Warn("Invalid set_phase payload", logger.Error(err))
			return
		}
		if err := h.checklistService.SetPhase(action.Phase); err != nil {
			h.logger.Warn("Rejected set_phase", logger.String("phase", action.Phase), logger.Error(err))
			return
		}
		h.BroadcastState()

	case "next_phase":
		if _, ok := h.checklistService.NextPhase(); ok {
			h.BroadcastState()
		}

	case "prev_phase":
		if _, ok := h.checklistService.PrevPhase(); ok {
			h.BroadcastState()
		}

	case "set_mode":
		var action wsModeAction
		if err := json.Unmarshal(msg.Data, &action); err != nil {
			h.logger.Warn("Invalid set_mode payload", logger.Error(err))
			return
		}
		if err := h.checklistService.SetMode(action.Mode); err != nil {
			h.logger.Warn("Rejected set_mode", logger.String("mode", action.Mode), logger.Error(err))
			return
		}
		h.BroadcastState()

	case "reset":
		h.checklistService.Reset()
		h.BroadcastState()

	case "get_state":
		h.BroadcastState()

	default:
		h.logger.Warn("Unknown websocket message type", logger.String("type", msg.Type))
	}
}

func (h *Handler) handleItemAction(msg *websocket.Message, mutate func(string, string) bool) {
	var action wsItemAction
	if err := json.Unmarshal(msg.Data, &action); err != nil {
		h.logger.Warn("Invalid item action payload",
			logger.String("type", msg.Type),
			logger.Error(err),
		)
		return
	}
	if mutate(action.Phase, action.ItemID) {
		h.BroadcastState()
	}
}
