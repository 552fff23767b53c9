package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/colorfulnotion/subwallet/chainspecs"
	"github.com/colorfulnotion/subwallet/common"
	"github.com/colorfulnotion/subwallet/controller"
	"github.com/colorfulnotion/subwallet/metadata"
	rpcclient "github.com/colorfulnotion/subwallet/rpc_client"
	"github.com/colorfulnotion/subwallet/storage"
	"github.com/colorfulnotion/subwallet/suberrors"
)

const defaultTimeout = 30 * time.Second

type options struct {
	network  string
	rpc      string
	dataDir  string
	logLevel string
	debug    string
	timeout  time.Duration
}

var opts options

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".subwallet")
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// fatalErr prints err with its error code when it has one.
func fatalErr(what string, err error) {
	if code := suberrors.GetErrorCode(err); code != "" {
		fatalf("%s failed [%s]: %v", what, code, err)
	}
	fatalf("%s failed: %v", what, err)
}

func loadNetwork() *chainspecs.Network {
	network, err := chainspecs.ReadNetwork(opts.network)
	if err != nil {
		fatalErr("loading network", err)
	}
	return network
}

// session is a controller connected to a node with a persistent fee cache.
type session struct {
	*controller.Controller
	node *rpcclient.NodeClient
	fees *storage.FeeStore
}

func openSession(ctx context.Context) *session {
	network := loadNetwork()
	url := opts.rpc
	if url == "" {
		url = network.RPC
	}
	node, err := rpcclient.Dial(ctx, url)
	if err != nil {
		fatalErr("connecting", err)
	}
	path := ""
	if opts.dataDir != "" {
		path = filepath.Join(opts.dataDir, "fees")
		if err := os.MkdirAll(opts.dataDir, 0o700); err != nil {
			fatalf("creating %s: %v", opts.dataDir, err)
		}
	}
	fees, err := storage.OpenFeeStore(path, network.ID)
	if err != nil {
		node.Close()
		fatalErr("opening fee cache", err)
	}
	return &session{Controller: controller.New(network, node, fees), node: node, fees: fees}
}

func (s *session) Close() {
	s.fees.Close()
	s.node.Close()
}

// offline is a controller with no node, enough to sign and decode.
func offline() *controller.Controller {
	return controller.New(loadNetwork(), nil, nil)
}

func withTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), opts.timeout)
}

// readInput reads a file, or stdin for "" and "-".
func readInput(path string) []byte {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		fatalf("reading %q: %v", path, err)
	}
	return data
}

func readJSON(path string, v any) {
	if err := json.Unmarshal(readInput(path), v); err != nil {
		fatalf("parsing %q: %v", path, err)
	}
}

// writeJSON writes v indented to path, or stdout when path is empty.
func writeJSON(path string, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatalf("encoding output: %v", err)
	}
	data = append(data, '\n')
	if path == "" {
		os.Stdout.Write(data)
		return
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		fatalf("writing %s: %v", path, err)
	}
}

func parseAmount(s string) *big.Int {
	if s == "" {
		return nil
	}
	v, ok := new(big.Int).SetString(s, 0)
	if !ok || v.Sign() < 0 {
		fatalf("invalid amount %q", s)
	}
	return v
}

// storageArg turns an address into its raw account id and anything else
// into hex decoded bytes.
func storageArg(network *chainspecs.Network, arg string) ([]byte, error) {
	if raw, err := network.AddressCodec().Decode(arg); err == nil {
		return raw, nil
	}
	raw, err := common.DecodeHex(arg)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is neither an address nor hex", suberrors.ErrDMalformedHex, arg)
	}
	return raw, nil
}

func readMetadataFile(path string) *metadata.Metadata {
	md, err := metadata.DecodeHex(strings.TrimSpace(string(readInput(path))))
	if err != nil {
		fatalErr("decoding metadata", err)
	}
	return md
}
