// Swirl viewer - full-screen rendering surface
//
// swirlview renders the procedural flow pattern for one display. It can run
// standalone (number keys 1-5 switch states locally) or as a follower
// mirroring the controller's state over MQTT, in which case local input is
// disabled and the surface tracks the installation.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/coordinator"
	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/infrastructure/config"
	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/infrastructure/logging"
	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/infrastructure/mqtt"
	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/state"
	"github.com/corneliawysoudil/sensoryexperience-swirlpattern/internal/visual"
)

const (
	windowWidth  = 1280
	windowHeight = 720

	// The pattern is shaded at a reduced resolution and scaled up. Shading
	// is per-pixel on the CPU; full 720p per frame would not hold 60fps.
	renderWidth  = 320
	renderHeight = 180

	transitionSeconds = 7.0
)

// stateKeys maps number keys to installation states.
var stateKeys = map[ebiten.Key]state.State{
	ebiten.KeyDigit1: state.StateStandby,
	ebiten.KeyDigit2: state.StateArrival,
	ebiten.KeyDigit3: state.StateAlert,
	ebiten.KeyDigit4: state.StateAdaptive,
	ebiten.KeyDigit5: state.StateConnection,
}

// viewer is the ebiten game loop around the visual engine.
type viewer struct {
	engine   *visual.Engine
	coord    *coordinator.Coordinator
	renderer *visual.Renderer

	frame   *image.RGBA
	texture *ebiten.Image
	start   time.Time
	mirror  bool
	showHUD bool
}

func newViewer(engine *visual.Engine, coord *coordinator.Coordinator, mirror bool) *viewer {
	return &viewer{
		engine:   engine,
		coord:    coord,
		renderer: visual.NewRenderer(),
		frame:    image.NewRGBA(image.Rect(0, 0, renderWidth, renderHeight)),
		texture:  ebiten.NewImage(renderWidth, renderHeight),
		start:    time.Now(),
		mirror:   mirror,
		showHUD:  true,
	}
}

func (v *viewer) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		v.showHUD = !v.showHUD
	}

	// Local state switching is a standalone affordance; a mirroring surface
	// takes its state from the controller.
	if !v.mirror {
		for key, target := range stateKeys {
			if inpututil.IsKeyJustPressed(key) {
				if err := v.coord.ChangeState(context.Background(), target, coordinator.ChangeOpts{Origin: "api"}); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

func (v *viewer) Draw(screen *ebiten.Image) {
	t := time.Since(v.start).Seconds()
	v.renderer.Render(v.frame, t, v.engine.Params())
	v.texture.WritePixels(v.frame.Pix)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(
		float64(windowWidth)/float64(renderWidth),
		float64(windowHeight)/float64(renderHeight),
	)
	screen.DrawImage(v.texture, op)

	if v.showHUD {
		hud := fmt.Sprintf("state: %s", v.engine.State())
		if v.engine.Transitioning() {
			hud += " (transitioning)"
		}
		if v.mirror {
			hud += "  [mirroring]"
		} else {
			hud += "  1-5: switch state"
		}
		hud += "  H: toggle HUD  Esc/Q: quit"
		ebitenutil.DebugPrint(screen, hud)
	}
}

func (v *viewer) Layout(_, _ int) (int, int) {
	return windowWidth, windowHeight
}

func main() {
	broker := flag.String("broker", "", "MQTT broker host:port; when set the viewer mirrors the controller's state")
	clientID := flag.String("client-id", "swirlview", "MQTT client ID")
	fullscreen := flag.Bool("fullscreen", false, "run full screen")
	flag.Parse()

	if err := run(*broker, *clientID, *fullscreen); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(broker, clientID string, fullscreen bool) error {
	log := logging.Default()

	engine := visual.NewEngine(visual.SystemClock{}, time.Duration(transitionSeconds*float64(time.Second)), state.StateStandby)

	role := coordinator.RoleController
	var mirror coordinator.Mirror
	if broker != "" {
		host, port, err := splitBroker(broker)
		if err != nil {
			return err
		}

		mqttCfg := config.MQTTConfig{QoS: 1}
		mqttCfg.Broker.Host = host
		mqttCfg.Broker.Port = port
		mqttCfg.Broker.ClientID = clientID
		mqttCfg.Reconnect.InitialDelay = 1
		mqttCfg.Reconnect.MaxDelay = 30

		client, err := mqtt.Connect(mqttCfg)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			if closeErr := client.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected", "broker", broker)

		role = coordinator.RoleFollower
		mirror = client
	}

	coord := coordinator.New(coordinator.Deps{
		Role:   role,
		Visual: engine,
		Mirror: mirror,
		Logger: log,
	})
	if err := coord.Start(context.Background()); err != nil {
		return fmt.Errorf("starting coordinator: %w", err)
	}

	ebiten.SetWindowSize(windowWidth, windowHeight)
	ebiten.SetWindowTitle("Swirl")
	ebiten.SetFullscreen(fullscreen)

	v := newViewer(engine, coord, mirror != nil)
	if err := ebiten.RunGame(v); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}

// splitBroker parses "host:port" with a default port of 1883.
func splitBroker(s string) (string, int, error) {
	host := s
	port := 1883
	if i := lastColon(s); i >= 0 {
		host = s[:i]
		if _, err := fmt.Sscanf(s[i+1:], "%d", &port); err != nil {
			return "", 0, fmt.Errorf("invalid broker address %q", s)
		}
	}
	if host == "" {
		return "", 0, fmt.Errorf("invalid broker address %q", s)
	}
	return host, port, nil
}

func lastColon(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == ':' {
			return i
		}
	}
	return -1
}
