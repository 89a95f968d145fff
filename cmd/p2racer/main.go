package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"p2racer/internal/cluster"
	"p2racer/internal/config"
	"p2racer/internal/netx"
	"p2racer/internal/physics"
	"p2racer/internal/protocol"
	"p2racer/internal/room"
	"p2racer/pkg/types"
)

func main() {
	listen := flag.String("listen", "", "ws listen addr (overrides config)")
	peers := flag.String("peer", "", "comma-separated peer base URLs to dial (e.g. ws://host:7780)")
	mesh := flag.Bool("mesh", false, "use in-process mesh transport (single-process demos)")
	cfgDir := flag.String("config", ".", "directory containing p2racer.cfg.json")
	name := flag.String("name", "", "display name (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*cfgDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *name != "" {
		cfg.Name = *name
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).With().Timestamp().Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	self := protocol.NewPeerID()
	var nw netx.Network
	if *mesh {
		nw = netx.NewMesh().Join(self)
	} else {
		nw = netx.NewWS(self, cfg.Listen, log)
	}

	node := cluster.NewNode(self, cfg.Name, nw, log)
	if err := node.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("node start failed")
	}

	if *peers != "" {
		ws, ok := node.Network().(*netx.WS)
		if !ok {
			fmt.Println("peer flag ignored (mesh transport)")
		} else {
			for _, addr := range strings.Split(*peers, ",") {
				if err := ws.AddPeer(ctx, strings.TrimSpace(addr)); err != nil {
					fmt.Println("dial error:", err)
				}
			}
		}
	}

	trk := physics.NewRingTrack(120, 14, 4)
	fmt.Printf("peer %s up, listening on %s\n", node.ID, cfg.Listen)
	fmt.Println("type 'help' for commands")
	repl(ctx, node, cfg.Room, trk)
}

func repl(ctx context.Context, node *cluster.Node, roomCfg types.RoomConfig, trk *physics.RingTrack) {
	var cur *room.Room
	var stopDrive chan struct{}

	s := bufio.NewScanner(os.Stdin)
	prompt := func() { fmt.Print("> ") }
	prompt()
	for s.Scan() {
		args := strings.Fields(strings.TrimSpace(s.Text()))
		if len(args) == 0 {
			prompt()
			continue
		}
		cmd := strings.ToLower(args[0])
		switch cmd {
		case "help":
			printHelp()

		case "whoami":
			fmt.Println("peer:", node.ID)

		case "host", "join":
			id := protocol.NewRoomID()
			if len(args) > 1 {
				id = protocol.RoomID(args[1])
			}
			var err error
			if cmd == "host" {
				cur, err = node.Rooms().Host(ctx, id, roomCfg, trk)
			} else {
				cur, err = node.Rooms().Join(ctx, id, roomCfg, trk)
			}
			if err != nil {
				fmt.Println("error:", err)
			} else {
				fmt.Println("room:", id)
			}

		case "start":
			if cur == nil {
				fmt.Println("no room; 'host' or 'join' first")
				break
			}
			settings := types.MatchSettings{Mode: types.ModeRace, Laps: 3}
			if len(args) > 1 {
				mode, err := types.ParseMode(args[1])
				if err != nil {
					fmt.Println("error:", err)
					break
				}
				settings.Mode = mode
			}
			if len(args) > 2 {
				if laps, err := strconv.Atoi(args[2]); err == nil {
					settings.Laps = laps
				}
			}
			cur.StartMatch(settings)

		case "status":
			if cur == nil {
				fmt.Println("(no room)")
				break
			}
			st := cur.Status()
			fmt.Printf("room=%s host=%s term=%d peers=%d\n", st.Room, st.Host, st.Term, len(st.PeerIDs))
			if st.Match != nil {
				fmt.Printf("match: mode=%s running=%v finished=%v scores=%v\n",
					st.Match.Settings.Mode, st.Match.Running, st.Match.FinishedOrder, st.Match.Scores)
			}
			fmt.Printf("car: pos=(%.1f, %.1f, %.1f) lap=%d s=%.3f alive=%v\n",
				st.Car.Pos.X, st.Car.Pos.Y, st.Car.Pos.Z, st.Car.Lap, st.Car.S, st.Car.Alive)

		case "peers":
			if cur == nil {
				fmt.Println("(no room)")
				break
			}
			for _, id := range cur.Status().PeerIDs {
				fmt.Println("-", id)
			}

		case "rooms":
			for _, id := range node.Rooms().ListIDs() {
				fmt.Println("-", id)
			}

		case "drive":
			if cur == nil {
				fmt.Println("no room; 'host' or 'join' first")
				break
			}
			on := len(args) > 1 && args[1] == "on"
			if on && stopDrive == nil {
				stopDrive = make(chan struct{})
				go autopilot(ctx, cur, trk, stopDrive)
				fmt.Println("autopilot on")
			} else if !on && stopDrive != nil {
				close(stopDrive)
				stopDrive = nil
				cur.SetInput(types.CarInput{})
				fmt.Println("autopilot off")
			}

		case "quit", "exit":
			return

		default:
			fmt.Println("unknown command; try 'help'")
		}
		prompt()
	}
}

// autopilot feeds simple follow-the-road inputs so a headless peer still
// exercises the full input/snapshot loop.
func autopilot(ctx context.Context, r *room.Room, trk *physics.RingTrack, stop <-chan struct{}) {
	ticker := time.NewTicker(33 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			car := r.Status().Car
			sample := trk.SampleAt(car.Pos.X, car.Pos.Z)
			targetYaw := math.Atan2(sample.Tangent.Z, sample.Tangent.X)
			delta := wrapPi(targetYaw - car.Yaw)
			steer := clamp(delta/0.6-sample.FromCenter*0.05, -1, 1)
			r.SetInput(types.CarInput{Throttle: 1, Steer: steer})
		}
	}
}

func wrapPi(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func printHelp() {
	fmt.Println(`commands:
  whoami                 print this peer's id
  host [roomID]          create a room and claim host
  join <roomID>          join a room (election after timeout if no host)
  start [mode] [laps]    host-only: start race|chaos|elimination
  status                 current room, host, match, own car
  peers                  list peers in the current room
  rooms                  list rooms on this node
  drive on|off           toggle autopilot input
  quit`)
}
