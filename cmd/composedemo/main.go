// Command composedemo is the minimal demo host spec.md §1 allows
// ("a renderer, a host/platform integration... are out of scope" for
// the core, but the core needs *some* host to be exercised against):
// it wires zap + gin + the scheduler together, composes a counter
// scene exercising spec.md §8's S1 (state write drives targeted
// recomposition) and S5 (modifier reconciliation reusing unchanged
// links) scenarios end-to-end, and serves the internal/diag/inspector
// diagnostics routes over HTTP.
//
// Grounded on cmd/zmux-server/main.go's shape: one zap logger built up
// front, gin.New() plus an explicit middleware stack (Recovery first,
// dev-only CORS, then an http.Server with matched timeouts), `ENV=dev`
// gating CORS the same way.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/samoylenkodmitry/compose-runtime/internal/composer"
	"github.com/samoylenkodmitry/compose-runtime/internal/diag/inspector"
	"github.com/samoylenkodmitry/compose-runtime/internal/diag/replay"
	"github.com/samoylenkodmitry/compose-runtime/internal/effect"
	"github.com/samoylenkodmitry/compose-runtime/internal/hostapi"
	"github.com/samoylenkodmitry/compose-runtime/internal/modifier"
	"github.com/samoylenkodmitry/compose-runtime/internal/observation"
	"github.com/samoylenkodmitry/compose-runtime/internal/runtime"
	"github.com/samoylenkodmitry/compose-runtime/internal/scheduler"
	"github.com/samoylenkodmitry/compose-runtime/internal/snapshot"
	"github.com/samoylenkodmitry/compose-runtime/internal/state"

	goredis "github.com/redis/go-redis/v9"
)

// scene owns the one root composable this demo runs: a node whose
// background color flips once the counter becomes positive (spec.md
// §8 S5's padding/background/clickable chain) and whose click handler
// requests an increment (S1's "write the counter, then only the
// counter-reading scope recomposes").
//
// The click handler only signals intent on increments rather than
// writing state directly: a Node's handler runs during
// modifiernode.Chain.DispatchPointer, outside any frame's own mutable
// snapshot, so it must not reach for composer.WriteState (that method
// assumes the composer's ambient snapshot is the one the scheduler
// took for *this* frame). The actual write happens on the apply loop
// below, the same path an external writer (S1's literal "write 1 to
// the counter outside composition") takes.
type scene struct {
	comp       *composer.Composer
	runner     *effect.Runner
	counter    *state.MutableState[int]
	root       observation.ScopeID
	increments chan struct{}
}

func newScene(comp *composer.Composer, runner *effect.Runner, increments chan struct{}) *scene {
	s := &scene{comp: comp, runner: runner, increments: increments}
	s.root = comp.Compose(1, s.body)
	return s
}

func (s *scene) body() {
	s.counter = composer.RememberState(s.comp, 0, state.Structural[int]())
	count := composer.ReadState(s.comp, s.counter)

	// LaunchedEffect("auto-increment"): started the first time this
	// call site composes, left running unchanged on every later
	// recomposition since the key never changes — the demo's
	// stand-in for spec.md §9's "side-effectful tasks launched from
	// composable on_attach callbacks."
	effect.Launch(s.comp, s.runner, "auto-increment", func(ctx context.Context) error {
		t := time.NewTicker(5 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C:
				select {
				case s.increments <- struct{}{}:
				default:
				}
			}
		}
	})

	color := uint32(0x1E1E1EFF)
	if count > 0 {
		color = 0x2E7D32FF
	}

	mod := modifier.Padding(8).
		Then(modifier.Background(color)).
		Then(modifier.Clickable("increment", func() {
			select {
			case s.increments <- struct{}{}:
			default:
			}
		}))

	s.comp.UseNodeSlot(1)
	s.comp.SetNodeModifier(1, mod)
}

// ZapLogger mirrors cmd/zmux-server/main.go's request logger. main
// installs it engine-wide; internal/diag/inspector.Mount adds its own
// copy on the /debug group, so a /debug request is logged by both.
func ZapLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func main() {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.EncoderConfig.TimeKey = ""
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logConfig.DisableStacktrace = true
	logConfig.DisableCaller = true
	log := zap.Must(logConfig.Build())
	defer log.Sync()
	log = log.Named("main")

	cfg := runtime.DefaultConfig()
	reg := snapshot.NewRegistry(cfg, log)
	defer reg.Dispose()
	obs := observation.NewRegistry()
	comp := composer.New(cfg, log, obs)
	host := hostapi.NewFakeHost()
	sched := scheduler.New(cfg, log, reg, comp, obs, host)
	stats := &inspector.FrameStats{}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb := goredis.NewClient(&goredis.Options{Addr: addr})
		sched.SetReplaySink(replay.NewSink(rdb, uuid.New().String(), log))
		log.Info("replay sink enabled", zap.String("addr", addr))
	}

	increments := make(chan struct{}, 1)

	runner := effect.NewRunner(context.Background(), 0, log)
	defer runner.Cancel()

	snap0 := reg.TakeMutableSnapshot(nil, comp.ReadObserver, nil)
	comp.SetSnapshot(snap0)
	sc := newScene(comp, runner, increments)
	if err := reg.Apply(snap0); err != nil {
		log.Fatal("initial composition failed to apply", zap.Error(err))
	}
	comp.SetSnapshot(reg.Global())

	runFrame := func() {
		touched, err := sched.RunFrame()
		stats.RecordFrame(touched, err)
		if err != nil {
			log.Warn("frame failed", zap.Error(err))
		}
	}

	// The one place the counter is ever written: a plain side-mutable
	// snapshot, applied, then the scheduler told which scopes to wake —
	// spec.md §8 S1's "write 1 to the counter outside composition" step,
	// driven by either the background ticker or a dispatched click.
	go func() {
		for range increments {
			mut := reg.TakeMutableSnapshot(nil, nil, nil)
			v := sc.counter.Read(reg.Global())
			sc.counter.Write(mut, v+1)
			if err := reg.Apply(mut); err != nil {
				log.Warn("increment apply failed", zap.Error(err))
				continue
			}
			for _, scope := range obs.ScopesObserving(sc.counter.ObjectID()) {
				sched.Invalidate(scope)
			}
			runFrame()
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"127.0.0.1"})

	r.Use(gin.Recovery())
	if os.Getenv("ENV") == "dev" {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:5173"},
			AllowMethods:     []string{"GET", "POST"},
			AllowHeaders:     []string{"Content-Type"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}
	r.Use(secure.New(secure.Config{
		IsDevelopment:      os.Getenv("ENV") == "dev",
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
	}))
	r.Use(ZapLogger(log))

	inspector.New(comp.Table(), sched, host, stats, log).Mount(r)

	// /api/click dispatches one synthetic pointer-up at node 1, driving
	// the same Clickable handler a real host's pointer loop would. The
	// handler only queues an increment (see scene.body's comment); the
	// increment-apply goroutine above does the actual write, invalidate,
	// and frame run (spec.md §8 S1/S5 end to end).
	r.POST("/api/click", func(c *gin.Context) {
		chain, ok := sched.ChainFor(1)
		if !ok {
			c.JSON(http.StatusConflict, gin.H{"message": "no frame has reconciled node 1 yet"})
			return
		}
		consumed := chain.DispatchPointer(modifier.PointerEvent{ID: 1, Phase: modifier.PointerUp})
		c.JSON(http.StatusOK, gin.H{"message": "click dispatched", "consumed": consumed})
	})

	r.POST("/api/tick", func(c *gin.Context) {
		select {
		case increments <- struct{}{}:
		default:
		}
		c.JSON(http.StatusAccepted, gin.H{"message": "increment queued"})
	})

	httpserver := &http.Server{
		Addr:           "127.0.0.1:8090",
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 15,
		ErrorLog:       zap.NewStdLog(log.Named("http").WithOptions(zap.AddCallerSkip(1))),
	}

	log.Info("running composedemo diagnostics server", zap.String("addr", httpserver.Addr))
	if err := httpserver.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("server failed", zap.Error(err))
	}

	fmt.Fprintln(os.Stderr, "composedemo exiting")
}
