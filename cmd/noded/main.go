// Command noded runs a single empower1blockchain node: it listens for
// gossip peers over websocket, mines blocks against the mempool,
// periodically generates demo transactions, and exposes an HTTP
// control surface.
package main

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	flags "github.com/jessevdk/go-flags"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"empower1.com/empower1blockchain/internal/blocktree"
	"empower1.com/empower1blockchain/internal/crypto"
	"empower1.com/empower1blockchain/internal/gossip"
	"empower1.com/empower1blockchain/internal/logging"
	"empower1.com/empower1blockchain/internal/mempool"
	"empower1.com/empower1blockchain/internal/miner"
	"empower1.com/empower1blockchain/internal/peer"
	"empower1.com/empower1blockchain/internal/rpcapi"
	"empower1.com/empower1blockchain/internal/txgen"
)

type options struct {
	Verbose     []bool   `short:"v" long:"verbose" description:"Increase logging verbosity (repeatable)"`
	P2PAddr     string   `long:"p2p" default:"127.0.0.1:6000" description:"Listen address for the P2P websocket server"`
	APIAddr     string   `long:"api" default:"127.0.0.1:7000" description:"Listen address for the HTTP control API"`
	KnownPeers  []string `short:"c" long:"connect" description:"Peer addresses to connect to at startup"`
	Workers     int      `long:"p2p-workers" default:"4" description:"Number of gossip dispatch worker goroutines"`
	MineOnStart bool     `long:"mine" description:"Start the miner immediately instead of parked"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		os.Exit(1)
	}

	log, err := logging.New(false, len(opts.Verbose))
	if err != nil {
		fmt.Fprintf(os.Stderr, "noded: failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	tree := blocktree.New(logging.EventHandler(log))
	pool := mempool.New()
	peers := peer.NewSet()
	inbound := make(chan peer.Envelope, 256)

	for i := 0; i < opts.Workers; i++ {
		w := gossip.NewWorker(inbound, peers, tree, pool, log)
		go w.Run()
	}

	upgrader := websocket.Upgrader{}
	p2pMux := http.NewServeMux()
	p2pMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warnf("noded: websocket upgrade failed: %v", err)
			return
		}
		c := peer.NewWSConn(conn, log)
		log.Infof("noded: accepted peer %s", c.ID())
		go c.Serve(peers, inbound)
	})
	go func() {
		log.Infof("noded: p2p server listening on %s", opts.P2PAddr)
		if err := http.ListenAndServe(opts.P2PAddr, p2pMux); err != nil {
			log.Errorf("noded: p2p server exited: %v", err)
		}
	}()

	controlled := crypto.DeterministicKeyPair(0)
	startNonce := tree.StateAtTip()[crypto.AddressOf(controlled.Public)].Nonce
	gen := txgen.New(pool, peers, log, controlled, startNonce)
	stopGen := make(chan struct{})
	go gen.Run(stopGen)

	m, mh := miner.New(tree, pool, peers, log)
	go m.Run()
	if opts.MineOnStart {
		mh.Start(0)
	}

	for _, addr := range opts.KnownPeers {
		go connectToPeer(addr, peers, inbound, log)
	}

	api := rpcapi.NewServer(tree, mh, log)
	log.Infof("noded: control API listening on %s", opts.APIAddr)
	if err := http.ListenAndServe(opts.APIAddr, api.Handler()); err != nil {
		log.Errorf("noded: control API exited: %v", err)
	}
}

// connectToPeer dials a known peer, retrying once a second on
// failure, mirroring the original node's outbound-connect loop.
func connectToPeer(addr string, peers *peer.Set, inbound chan peer.Envelope, log *zap.SugaredLogger) {
	for {
		if _, err := net.ResolveTCPAddr("tcp", addr); err != nil {
			log.Errorf("noded: invalid peer address %s: %v", addr, err)
			return
		}
		conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/", nil)
		if err != nil {
			log.Warnf("noded: failed to connect to %s, retrying in 1s: %v", addr, err)
			time.Sleep(time.Second)
			continue
		}
		c := peer.NewWSConn(conn, log)
		log.Infof("noded: connected to outgoing peer %s (%s)", addr, c.ID())
		go c.Serve(peers, inbound)
		return
	}
}
