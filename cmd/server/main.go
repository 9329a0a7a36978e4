// Command server runs a race simulation and streams snapshots to websocket
// clients. It is a pure consumer of the engine's snapshot interface: the
// simulation is advanced on a fixed cadence between broadcasts, and each
// broadcast carries the drained events since the previous one.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/simpulse/racesim/internal/engine"
	"github.com/simpulse/racesim/internal/rng"
	"github.com/simpulse/racesim/internal/weather"
)

type client struct {
	id   string
	conn *websocket.Conn
}

// hub fans snapshots out to every connected websocket client.
type hub struct {
	mu       sync.Mutex
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
	logger   *log.Logger
}

func newHub(logger *log.Logger) *hub {
	return &hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger,
	}
}

func (h *hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
	c.conn.Close()
}

func (h *hub) broadcast(snap engine.Snapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		h.logger.Error("marshaling snapshot", "err", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.logger.Warn("dropping client", "session", c.id, "err", err)
			c.conn.Close()
			delete(h.clients, c)
		}
	}
}

func (h *hub) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Error("websocket upgrade failed", "err", err)
			return
		}
		c := &client{id: uuid.NewString(), conn: conn}
		h.add(c)
		defer h.remove(c)
		h.logger.Info("client connected", "session", c.id, "remote", r.RemoteAddr)

		// Drain (and discard) client messages so pings are answered and
		// closes are noticed.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.logger.Info("client disconnected", "session", c.id)
				return
			}
		}
	}
}

func main() {
	var (
		addr     = flag.String("addr", ":8080", "server listen address")
		laps     = flag.Int("laps", 10, "race length in laps")
		seed     = flag.Uint64("seed", 42, "master seed")
		interval = flag.Duration("interval", 100*time.Millisecond, "broadcast interval")
		speedup  = flag.Float64("speedup", 1.0, "simulated seconds per wall-clock second")
		dynamic  = flag.Bool("weather", true, "evolve weather during the race")
	)
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "raceserver"})

	cfg := engine.DefaultConfig()
	cfg.NumLaps = *laps
	cfg.Seed = *seed

	sim, err := engine.Build(engine.SimulationInput{Config: cfg})
	if err != nil {
		logger.Fatal("building simulation", "err", err)
	}
	logger.Info("simulation ready", "run_id", sim.RunID(), "laps", *laps, "seed", *seed)

	// The weather system is an external collaborator: it evolves on its own
	// stream and is fed back in through SetWeather.
	var wx *weather.System
	if *dynamic {
		wx = weather.NewSystem(weather.Dry(), rng.NewStream(*seed, 1<<32))
	}

	h := newHub(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go drive(ctx, sim, wx, h, logger, *interval, *speedup, cfg.DT)

	http.Handle("/ws/race", h.handler())
	http.Handle("/", http.FileServer(http.Dir("web")))

	logger.Info("serving", "addr", *addr)
	if err := http.ListenAndServe(*addr, nil); err != nil {
		logger.Fatal("server failed", "err", err)
	}
}

// drive advances the simulation in wall-clock cadence and broadcasts a
// snapshot after each batch of ticks.
func drive(ctx context.Context, sim *engine.Simulation, wx *weather.System, h *hub, logger *log.Logger, interval time.Duration, speedup, dt float64) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	simPerBroadcast := interval.Seconds() * speedup

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if sim.Finished() {
			h.broadcast(sim.Snapshot())
			logger.Info("race finished")
			return
		}

		if wx != nil {
			sim.SetWeather(wx.Step(simPerBroadcast))
		}

		for advanced := 0.0; advanced < simPerBroadcast && !sim.Finished(); advanced += dt {
			if err := sim.Tick(); err != nil {
				logger.Error("tick failed", "err", err)
				return
			}
		}
		h.broadcast(sim.Snapshot())
	}
}
