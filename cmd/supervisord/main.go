// Command supervisord runs a standalone p2p supervisor node: bind a
// listener, accept inbound peers, optionally dial one peer given on the
// command line, and log every published event.
package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nodeline/p2p-supervisor/pkg/p2p"
	"github.com/nodeline/p2p-supervisor/pkg/p2p/definition"
	"github.com/nodeline/p2p-supervisor/pkg/p2p/transport"
	"github.com/nodeline/p2p-supervisor/pkg/p2p/types"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		bindAddr string
		connect  string
		debug    bool
	)

	root := &cobra.Command{
		Use:   "supervisord",
		Short: "Run a p2p supervisor node over TCP with a Noise XX handshake",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(bindAddr, connect, debug)
		},
	}

	root.Flags().StringVar(&bindAddr, "bind", "127.0.0.1:0", "address to bind the listener on")
	root.Flags().StringVar(&connect, "connect", "", "address of a peer to dial on startup")
	root.Flags().BoolVar(&debug, "debug", false, "enable debug logging")

	return root
}

func run(bindAddr, connect string, debug bool) error {
	log := definition.NewDefaultLogger()
	log.ToggleDebug(debug)

	tr, err := transport.New(log)
	if err != nil {
		return fmt.Errorf("build transport: %w", err)
	}
	log.Infof("supervisord: static public key %s", hex.EncodeToString(tr.PublicKey()))

	sup, err := p2p.Construct(tr, bindAddr,
		p2p.WithLogger(log),
		p2p.WithStreams("chat"),
	)
	if err != nil {
		return fmt.Errorf("construct supervisor: %w", err)
	}
	defer sup.Close()

	if err := sup.Command(types.AcceptCommand{}); err != nil {
		return fmt.Errorf("issue initial accept: %w", err)
	}

	if connect != "" {
		if err := sup.Command(types.ConnectCommand{Info: types.ConnectInfo{Address: connect}}); err != nil {
			return fmt.Errorf("issue connect to %s: %w", connect, err)
		}
	}

	for {
		ev, ok := sup.Recv()
		if !ok {
			return nil
		}
		printEvent(log, ev)
		if _, ok := ev.(types.UpgradedEvent); ok {
			// Keep accepting further inbound connections after each upgrade;
			// the accept worker only re-arms on demand (spec §4.1).
			_ = sup.Command(types.AcceptCommand{})
		}
	}
}

func printEvent(log definition.Logger, ev types.Event) {
	switch e := ev.(type) {
	case types.ConnectedEvent:
		log.Infof("connected %s (%s)", e.ID, e.Direction)
	case types.UpgradedEvent:
		log.Infof("upgraded %s", e.ID)
	case types.UpgradeFailedEvent:
		log.Warnf("upgrade failed %s: %v", e.ID, e.Reason)
	case types.MessageEvent:
		log.Infof("message from %s on %s: %q", e.ID, e.Message.Stream, e.Message.Payload)
	case types.DisconnectedEvent:
		log.Infof("disconnected %s: %v", e.ID, e.Reason)
	case types.TerminatedEvent:
		log.Infof("terminated: %v", e.Reason)
	}
}
