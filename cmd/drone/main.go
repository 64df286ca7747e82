// Command drone is the vehicle-side link process: it terminates the UDP
// control link, dispatches GET/SET sub-commands to the hardware
// collaborators, discovers and selects cameras, runs the telemetry
// producer, and restarts the auxiliary tunnel relays toward the ground
// station whenever SetGSIP changes its address (§4, §6).
package main

import (
	"context"
	"flag"
	"log"
	"net"
	"os/signal"
	"syscall"
	"time"

	"skylink/camera"
	"skylink/config"
	"skylink/dispatch"
	"skylink/hardware/camdrv"
	"skylink/hardware/encoder"
	"skylink/hardware/sysservice"
	"skylink/link"
	"skylink/telemetry"
	"skylink/tunnel"
	"skylink/wire"
)

func main() {
	var (
		defaultsPath  = flag.String("defaults", "/etc/skylink/defaults.yaml", "path to default config YAML")
		overridePath  = flag.String("overrides", "/etc/skylink/overrides.yaml", "path to override config YAML")
		gsIP          = flag.String("gs-ip", "", "ground station IP (direct mode) or remote overlay IP (tunnel mode)")
		tunnelMode    = flag.Bool("tunnel", false, "run the link over the tunnel transport instead of direct UDP")
		telemetryRate = flag.Duration("telemetry-period", 5*time.Second, "system telemetry sample period")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result := config.Load(*defaultsPath, *overridePath)
	cfg := result.Config

	mode := link.Direct
	if *tunnelMode {
		mode = link.Tunnel
	}

	devices, err := camera.Discover()
	if err != nil {
		log.Println("camera: discovery error (continuing with no cameras):", err)
	}
	for _, dev := range devices {
		log.Println("camera: found", dev)
	}

	csi := camdrv.NewCSI()
	usb := camdrv.NewUSB()
	tuning := camdrv.NewTuning()
	cameras := camera.NewManager(devices, cfg, csi, usb, nil)
	if len(devices) > 0 {
		if err := cameras.SelectBest(); err != nil {
			log.Println("camera: initial select failed:", err)
		}
	}

	enc := encoder.New()
	var restart dispatch.ServiceRestarter
	if restarter, err := sysservice.New(); err != nil {
		log.Println("sysservice: dbus connect failed, reboot/restart sub-commands will nack:", err)
	} else {
		restart = restarter
		defer restarter.Close()
	}

	tunnels := tunnel.New()
	defer tunnels.Stop()

	persistPath := *overridePath
	persist := func() error { return config.SaveOverrides(persistPath, cfg, result.Defaults) }
	restoreDefault := func() error {
		cfg.SetEncoder(result.Defaults.GetEncoder())
		cfg.SetStream(result.Defaults.GetStream())
		cfg.SetServer(result.Defaults.GetServer())
		return persist()
	}

	// The dispatcher needs the peer to send replies, and the peer needs the
	// dispatcher to handle incoming commands; break the cycle with a
	// forwarding closure installed before either is fully built.
	var d *dispatch.Dispatcher
	peer, err := link.New(link.Drone, mode, *gsIP, link.Callbacks{
		OnCmd: func(cmd wire.Command, from *net.UDPAddr) { d.Handle(cmd, from) },
	})
	if err != nil {
		log.Fatal("link: ", err)
	}
	defer peer.Deinit()

	d = dispatch.New(cfg, peer, enc, tuning, cameras, tunnels, restart, persist, restoreDefault)

	producer := telemetry.New(peer, nil, *telemetryRate)
	go producer.Run(ctx)

	log.Println("drone: link up, mode=", mode)
	<-ctx.Done()
	log.Println("drone: shutting down")
}
