//go:build linux

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	grpc_client "github.com/forest33/rawlink/adapter/grpc/client"
	"github.com/forest33/rawlink/adapter/link"
	"github.com/forest33/rawlink/adapter/packet"
	"github.com/forest33/rawlink/business/entity"
	"github.com/forest33/rawlink/pkg/compression"
)

const (
	commandRun        = "run"
	commandInterfaces = "interfaces"
	commandSend       = "send"
	commandState      = "state"
	commandFrames     = "frames"
	commandHelp       = "help"
)

type commandData struct {
	host  string
	port  int
	frame string
	count int
}

func parseCommandLine() {
	var (
		err     error
		fs      *flag.FlagSet
		data    = &commandData{}
		command = os.Args[1]
	)

	commandHandlers := map[string]func(*commandData){
		commandInterfaces: handlerInterfaces,
		commandSend:       handlerSend,
		commandState:      handlerState,
		commandFrames:     handlerFrames,
	}

	switch command {
	case commandInterfaces:
		fs = flag.NewFlagSet(commandInterfaces, flag.ExitOnError)
	case commandSend:
		fs = flag.NewFlagSet(commandSend, flag.ExitOnError)
		grpcFlags(fs, data)
		fs.StringVar(&data.frame, "hex", "", "Ethernet frame as hex digits, colons allowed")
	case commandState:
		fs = flag.NewFlagSet(commandState, flag.ExitOnError)
		grpcFlags(fs, data)
	case commandFrames:
		fs = flag.NewFlagSet(commandFrames, flag.ExitOnError)
		grpcFlags(fs, data)
		fs.IntVar(&data.count, "count", 0, "stop after this many frames, 0 streams until interrupted")
	case commandHelp:
		printHelp()
		os.Exit(0)
	default:
		fmt.Printf("Unknown command %s\n", os.Args[1])
		printHelp()
		os.Exit(1)
	}
	if err = fs.Parse(os.Args[2:]); err != nil {
		zlog.Fatal(err)
	}

	commandHandlers[command](data)
}

func grpcFlags(fs *flag.FlagSet, data *commandData) {
	fs.StringVar(&data.host, "host", cfg.Grpc.Host, "listener gRPC host")
	fs.IntVar(&data.port, "port", cfg.Grpc.Port, "listener gRPC port")
}

func newClient(data *commandData) *grpc_client.Client {
	client, err := grpc_client.New(&grpc_client.Config{
		Host: data.host,
		Port: data.port,
	}, zlog, compression.New(&compression.Config{FrameSize: cfg.Capture.SnapLength}))
	if err != nil {
		zlog.Fatalf("failed to create gRPC client: %v", err)
	}
	return client
}

func handlerInterfaces(*commandData) {
	ifs, err := link.List()
	if err != nil {
		zlog.Fatalf("failed to list interfaces: %v", err)
	}
	for _, i := range ifs {
		hw := ""
		if i.HardwareAddr != nil {
			hw = i.HardwareAddr.String()
		}
		fmt.Printf("%d\t%s\tmtu %d\t%s\t%s\n", i.Index, i.Name, i.MTU, hw, i.Flags)
	}
}

func handlerSend(data *commandData) {
	frame, err := entity.ParseHexFrame(data.frame)
	if err != nil {
		zlog.Fatalf("wrong frame: %v", err)
	}
	if len(frame) < entity.EthernetHeaderSize {
		zlog.Fatalf("frame of %d bytes is shorter than an Ethernet header", len(frame))
	}

	client := newClient(data)
	defer client.Close()

	if err := client.Send(ctx, frame); err != nil {
		zlog.Fatalf("failed to send frame: %v", err)
	}

	zlog.Info().Int("size", len(frame)).Msg("frame sent")
}

func handlerState(data *commandData) {
	client := newClient(data)
	defer client.Close()

	stat, err := client.GetState(ctx)
	if err != nil {
		zlog.Fatalf("failed to get listener state: %v", err)
	}

	buf, err := json.MarshalIndent(stat, "", "  ")
	if err != nil {
		zlog.Fatalf("failed to marshal listener state: %v", err)
	}
	fmt.Println(string(buf))
}

func handlerFrames(data *commandData) {
	client := newClient(data)
	defer client.Close()

	sctx, scancel := context.WithCancel(ctx)
	defer scancel()

	frames, err := client.Frames(sctx)
	if err != nil {
		zlog.Fatalf("failed to subscribe to frames: %v", err)
	}

	decoder := packet.New(&packet.Config{Layers: true})
	received := 0
	for frame := range frames {
		fi, err := decoder.Decode(frame)
		if err != nil {
			zlog.Error().Err(err).Int("size", len(frame)).Msg("failed to decode frame")
			continue
		}
		fmt.Printf("%s > %s %s length %d\n", fi.Src, fi.Dst, entity.EtherTypeName(fi.EtherType), fi.Length)

		received++
		if data.count > 0 && received >= data.count {
			return
		}
	}
}

func printHelp() {
	fmt.Printf("Usage: ./listener [command args]\n")
	fmt.Printf(" run		- capture on the configured interface (default)\n")
	fmt.Printf(" interfaces	- list network interfaces\n")
	fmt.Printf(" send		- inject a frame through a running listener\n")
	fmt.Printf(" state		- show counters of a running listener\n")
	fmt.Printf(" frames		- stream frames received by a running listener\n")
	fmt.Printf(" help		- show this help\n")
	fmt.Printf("Get help for a specific command: ./listener command -h\n")
}
