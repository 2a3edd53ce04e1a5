package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pathglyph/pathglyph/internal/core/events/bus"
	"github.com/pathglyph/pathglyph/internal/core/geometry"
	"github.com/pathglyph/pathglyph/internal/core/observability/log"
	"github.com/pathglyph/pathglyph/internal/core/sim"
	"github.com/pathglyph/pathglyph/internal/core/world"
)

// Config holds host configuration.
type Config struct {
	ListenAddr string
	// TickInterval is the wall-clock frame period; each tick advances
	// the simulation by its seconds equivalent.
	TickInterval time.Duration
	// CommandBuffer bounds the queue of editor commands waiting for the
	// next tick boundary.
	CommandBuffer int
	LogLevel      log.Level
}

// DefaultConfig returns the default host configuration: 20 ticks per
// second on the loopback interface.
func DefaultConfig() Config {
	return Config{
		ListenAddr:    "127.0.0.1:8080",
		TickInterval:  50 * time.Millisecond,
		CommandBuffer: 64,
		LogLevel:      log.LevelInfo,
	}
}

// Server hosts the planning core over a websocket: it ticks the
// simulation at a fixed rate, broadcasts a state snapshot after every
// tick and applies editor commands at tick boundaries. The core itself
// stays single-threaded; only the command queue and the client set are
// shared with connection goroutines.
type Server struct {
	config     Config
	simulation *sim.Simulation
	events     bus.EventBus
	logger     log.Log

	commands chan Command

	mu      sync.Mutex
	clients map[*client]struct{}

	httpServer *http.Server
}

// New creates a host around an already-configured simulation.
func New(config Config, simulation *sim.Simulation, events bus.EventBus, logger log.Log) *Server {
	if logger == nil {
		logger = log.NewNop()
	}
	if config.CommandBuffer <= 0 {
		config.CommandBuffer = DefaultConfig().CommandBuffer
	}
	s := &Server{
		config:     config,
		simulation: simulation,
		events:     events,
		logger:     logger.With(log.String("component", "server")),
		commands:   make(chan Command, config.CommandBuffer),
		clients:    make(map[*client]struct{}),
	}
	if events != nil {
		events.Subscribe("", s.forwardEvent)
	}
	return s
}

// Run serves until the context is cancelled, driving the tick loop and
// the websocket listener in one errgroup.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)

	s.httpServer = &http.Server{Addr: s.config.ListenAddr, Handler: mux}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		s.logger.Info("listening", log.String("addr", s.config.ListenAddr))
		err := s.httpServer.ListenAndServe()
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	})

	group.Go(func() error {
		s.tickLoop(ctx)
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

func (s *Server) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(s.config.TickInterval)
	defer ticker.Stop()

	dt := s.config.TickInterval.Seconds()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.drainCommands()
			s.simulation.Advance(dt)
			s.broadcastSnapshot()
		}
	}
}

// drainCommands applies every queued editor command. Commands arrive
// from connection goroutines but are only ever applied here, between
// ticks.
func (s *Server) drainCommands() {
	for {
		select {
		case cmd := <-s.commands:
			s.apply(cmd)
		default:
			return
		}
	}
}

func (s *Server) apply(cmd Command) {
	env := s.simulation.Environment()
	p := geometry.Point{X: cmd.X, Y: cmd.Y}

	switch cmd.Type {
	case CmdSetStart:
		env.SetStart(p)
	case CmdSetGoal:
		env.SetGoal(p)
	case CmdAddStatic:
		env.AddStaticObstacle(p, cmd.Radius)
	case CmdAddDynamic:
		s.addDynamic(env, cmd, p)
	case CmdRemove:
		env.RemoveObstacle(p, cmd.Tolerance)
	case CmdReplan:
		s.simulation.RequestReplan()
	case CmdStart:
		s.simulation.Start()
	case CmdReset:
		s.simulation.Reset()
	default:
		s.logger.Warn("unknown command", log.String("type", cmd.Type))
	}
}

func (s *Server) addDynamic(env *world.Environment, cmd Command, p geometry.Point) {
	switch cmd.MovementType {
	case "linear":
		if cmd.Direction == nil {
			s.logger.Warn("add_dynamic linear without direction")
			return
		}
		env.AddLinearObstacle(p, cmd.Speed, *cmd.Direction)
	case "circular":
		if cmd.Center == nil {
			s.logger.Warn("add_dynamic circular without center")
			return
		}
		env.AddCircularObstacle(p, *cmd.Center, cmd.Radius, cmd.AngularSpeed)
	default:
		s.logger.Warn("add_dynamic with unknown movement type",
			log.String("movement_type", cmd.MovementType))
	}
}

func (s *Server) forwardEvent(e bus.Event) {
	s.broadcast(EventMessage{Type: "event", Event: e.Type()})
}
