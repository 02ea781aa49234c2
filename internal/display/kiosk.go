package display

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// KioskSurface bridges the agent to the fullscreen kiosk page over a local
// websocket. The agent owns all playback state; the page only loads the
// frame it is handed and reports ready/ended/error back.
type KioskSurface struct {
	addr         string
	readyTimeout time.Duration
	logger       zerolog.Logger
	upgrader     websocket.Upgrader
	server       *http.Server

	mu           sync.Mutex
	conn         *websocket.Conn
	waiters      map[Slot]chan error
	lastOverlay  Overlay
	lastBranding *Branding

	ended chan Slot
}

// command is an agent-to-page message.
type command struct {
	Type     string    `json:"type"`
	Slot     Slot      `json:"slot,omitempty"`
	Frame    *Frame    `json:"frame,omitempty"`
	Overlay  *Overlay  `json:"overlay,omitempty"`
	Branding *Branding `json:"branding,omitempty"`
}

// pageEvent is a page-to-agent message.
type pageEvent struct {
	Type    string `json:"type"`
	Slot    Slot   `json:"slot"`
	Message string `json:"message,omitempty"`
}

// NewKioskSurface creates a kiosk bridge listening on addr.
func NewKioskSurface(addr string, readyTimeout time.Duration, logger zerolog.Logger) *KioskSurface {
	return &KioskSurface{
		addr:         addr,
		readyTimeout: readyTimeout,
		logger:       logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		waiters: make(map[Slot]chan error),
		ended:   make(chan Slot, 4),
	}
}

// Start begins serving the websocket endpoint.
func (k *KioskSurface) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", k.handleSocket)

	k.server = &http.Server{Addr: k.addr, Handler: mux}
	go func() {
		if err := k.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			k.logger.Error().Err(err).Msg("Kiosk bridge server failed")
		}
	}()

	k.logger.Info().Str("addr", k.addr).Msg("Kiosk bridge listening")
	return nil
}

// Stop shuts the bridge down.
func (k *KioskSurface) Stop() error {
	if k.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return k.server.Shutdown(ctx)
}

// handleSocket accepts the kiosk page connection. A reconnecting page
// replaces the previous connection and gets the current overlay and
// branding replayed so the pairing code, offline notice and account chrome
// survive a page reload.
func (k *KioskSurface) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := k.upgrader.Upgrade(w, r, nil)
	if err != nil {
		k.logger.Error().Err(err).Msg("Kiosk websocket upgrade failed")
		return
	}

	k.mu.Lock()
	if k.conn != nil {
		k.conn.Close()
	}
	k.conn = conn
	overlay := k.lastOverlay
	branding := k.lastBranding
	k.mu.Unlock()

	k.logger.Info().Str("remote", conn.RemoteAddr().String()).Msg("Kiosk page connected")

	if branding != nil {
		k.send(command{Type: "branding", Branding: branding})
	}
	if overlay.Kind != "" {
		k.send(command{Type: "overlay", Overlay: &overlay})
	}

	for {
		var ev pageEvent
		if err := conn.ReadJSON(&ev); err != nil {
			break
		}
		k.dispatch(ev)
	}

	k.mu.Lock()
	if k.conn == conn {
		k.conn = nil
	}
	k.mu.Unlock()
	conn.Close()
	k.logger.Warn().Msg("Kiosk page disconnected")
}

// dispatch routes one page event to its waiter or the ended channel.
func (k *KioskSurface) dispatch(ev pageEvent) {
	switch ev.Type {
	case "ready", "error":
		k.mu.Lock()
		waiter := k.waiters[ev.Slot]
		delete(k.waiters, ev.Slot)
		k.mu.Unlock()

		if waiter == nil {
			return
		}
		if ev.Type == "error" {
			waiter <- fmt.Errorf("kiosk page failed to load slot %s: %s", ev.Slot, ev.Message)
		} else {
			waiter <- nil
		}
	case "ended":
		select {
		case k.ended <- ev.Slot:
		default:
		}
	default:
		k.logger.Warn().Str("type", ev.Type).Msg("Unknown kiosk event")
	}
}

// send writes one command to the connected page.
func (k *KioskSurface) send(cmd command) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.conn == nil {
		return errors.New("kiosk page not connected")
	}
	return k.conn.WriteJSON(cmd)
}

// Apply pushes the frame into the hidden slot and blocks until the page
// reports the content ready, reports a load error, or the ready timeout
// fires. A timeout counts as a load error so the controller skips the
// slide instead of stalling.
func (k *KioskSurface) Apply(ctx context.Context, slot Slot, frame Frame) error {
	waiter := make(chan error, 1)

	k.mu.Lock()
	k.waiters[slot] = waiter
	k.mu.Unlock()

	if err := k.send(command{Type: "apply", Slot: slot, Frame: &frame}); err != nil {
		k.mu.Lock()
		delete(k.waiters, slot)
		k.mu.Unlock()
		return err
	}

	select {
	case err := <-waiter:
		return err
	case <-time.After(k.readyTimeout):
		k.mu.Lock()
		delete(k.waiters, slot)
		k.mu.Unlock()
		return fmt.Errorf("slot %s content not ready within %s", slot, k.readyTimeout)
	case <-ctx.Done():
		k.mu.Lock()
		delete(k.waiters, slot)
		k.mu.Unlock()
		return ctx.Err()
	}
}

// Show makes the slot visible.
func (k *KioskSurface) Show(slot Slot) {
	if err := k.send(command{Type: "show", Slot: slot}); err != nil {
		k.logger.Warn().Err(err).Str("slot", string(slot)).Msg("Failed to show slot")
	}
}

// Clear empties the slot so the page can release media resources.
func (k *KioskSurface) Clear(slot Slot) {
	if err := k.send(command{Type: "clear", Slot: slot}); err != nil {
		k.logger.Debug().Err(err).Str("slot", string(slot)).Msg("Failed to clear slot")
	}
}

// SetOverlay shows or hides a full-screen state and remembers it for page
// reconnects.
func (k *KioskSurface) SetOverlay(overlay Overlay) {
	k.mu.Lock()
	k.lastOverlay = overlay
	k.mu.Unlock()

	if err := k.send(command{Type: "overlay", Overlay: &overlay}); err != nil {
		k.logger.Debug().Err(err).Msg("Failed to push overlay")
	}
}

// SetBranding pushes the account chrome to the page and remembers it for
// page reconnects.
func (k *KioskSurface) SetBranding(branding Branding) {
	k.mu.Lock()
	k.lastBranding = &branding
	k.mu.Unlock()

	if err := k.send(command{Type: "branding", Branding: &branding}); err != nil {
		k.logger.Debug().Err(err).Msg("Failed to push branding")
	}
}

// Ended delivers natural end-of-media notifications from the page.
func (k *KioskSurface) Ended() <-chan Slot {
	return k.ended
}
