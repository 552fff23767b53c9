// Package rpcclient talks JSON-RPC to a Substrate node over a websocket.
package rpcclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/colorfulnotion/subwallet/common"
	"github.com/colorfulnotion/subwallet/log"
	"github.com/colorfulnotion/subwallet/metadata"
	"github.com/colorfulnotion/subwallet/suberrors"
	"github.com/colorfulnotion/subwallet/types"
	"github.com/gorilla/websocket"
	lru "github.com/hashicorp/golang-lru"
)

const (
	MethodGetStorage        = "state_getStorage"
	MethodGetMetadata       = "state_getMetadata"
	MethodGetRuntimeVersion = "state_getRuntimeVersion"
	MethodGetBlockHash      = "chain_getBlockHash"
	MethodGetHeader         = "chain_getHeader"
	MethodQueryInfo         = "payment_queryInfo"
	MethodSubmitExtrinsic   = "author_submitExtrinsic"
)

const metadataCacheSize = 8

var ErrClosed = errors.New("rpc client closed")

type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type response struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *rpcError) Error() string {
	if len(e.Data) > 0 {
		return fmt.Sprintf("%d %s: %s", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("%d %s", e.Code, e.Message)
}

// NodeClient multiplexes concurrent calls over one websocket. Decoded
// metadata is cached per spec version.
type NodeClient struct {
	url    string
	wsConn *websocket.Conn
	// to protect writes
	wsMutex sync.Mutex

	nextID    atomic.Uint64
	pending   map[uint64]chan *response
	pendingMu sync.Mutex
	closed    chan struct{}
	readErr   error

	metadata *lru.Cache
}

// Dial connects to a node's websocket endpoint.
func Dial(ctx context.Context, url string) (*NodeClient, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect websocket %s: %v", suberrors.ErrNRPCFailure, url, err)
	}
	cache, err := lru.New(metadataCacheSize)
	if err != nil {
		return nil, err
	}
	c := &NodeClient{
		url:      url,
		wsConn:   conn,
		pending:  make(map[uint64]chan *response),
		closed:   make(chan struct{}),
		metadata: cache,
	}
	go c.listenWebSocket()
	log.Info(log.RPCMonitoring, "connected", "url", url)
	return c, nil
}

func (c *NodeClient) listenWebSocket() {
	defer close(c.closed)
	for {
		_, msg, err := c.wsConn.ReadMessage()
		if err != nil {
			c.pendingMu.Lock()
			c.readErr = err
			c.pendingMu.Unlock()
			log.Debug(log.RPCMonitoring, "websocket read stopped", "err", err)
			return
		}
		var resp response
		if err := json.Unmarshal(msg, &resp); err != nil {
			log.Warn(log.RPCMonitoring, "failed to parse websocket message", "msg", string(msg), "err", err)
			continue
		}
		c.pendingMu.Lock()
		ch, ok := c.pending[resp.ID]
		delete(c.pending, resp.ID)
		c.pendingMu.Unlock()
		if !ok {
			// subscriptions and late replies
			log.Trace(log.RPCMonitoring, "unmatched message", "id", resp.ID)
			continue
		}
		ch <- &resp
	}
}

// Call sends one request and unmarshals its result into result. A null
// result leaves result untouched and reports found=false.
func (c *NodeClient) Call(ctx context.Context, method string, result any, params ...any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	id := c.nextID.Add(1)
	ch := make(chan *response, 1)
	c.pendingMu.Lock()
	if c.readErr != nil {
		err := c.readErr
		c.pendingMu.Unlock()
		return false, fmt.Errorf("%w: %s: %v", suberrors.ErrNRPCFailure, method, err)
	}
	c.pending[id] = ch
	c.pendingMu.Unlock()

	if params == nil {
		params = []any{}
	}
	c.wsMutex.Lock()
	err := c.wsConn.WriteJSON(request{JSONRPC: "2.0", ID: id, Method: method, Params: params})
	c.wsMutex.Unlock()
	if err != nil {
		c.forget(id)
		return false, fmt.Errorf("%w: %s: %v", suberrors.ErrNRPCFailure, method, err)
	}
	log.Trace(log.RPCMonitoring, "call", "id", id, "method", method)

	select {
	case resp := <-ch:
		if resp.Error != nil {
			return false, fmt.Errorf("%w: %s: %v", suberrors.ErrNRPCFailure, method, resp.Error)
		}
		if len(resp.Result) == 0 || string(resp.Result) == "null" {
			return false, nil
		}
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return false, fmt.Errorf("%s result: %w", method, err)
		}
		return true, nil
	case <-ctx.Done():
		c.forget(id)
		return false, ctx.Err()
	case <-c.closed:
		return false, fmt.Errorf("%w: %s: %v", suberrors.ErrNRPCFailure, method, ErrClosed)
	}
}

func (c *NodeClient) forget(id uint64) {
	c.pendingMu.Lock()
	delete(c.pending, id)
	c.pendingMu.Unlock()
}

func (c *NodeClient) Close() error {
	c.wsMutex.Lock()
	defer c.wsMutex.Unlock()
	_ = c.wsConn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.wsConn.Close()
}

func withBlock(at *common.Hash, params ...any) []any {
	if at != nil {
		params = append(params, at.Hex())
	}
	return params
}

func missing(method string, params ...any) error {
	return fmt.Errorf("%w: %s%v returned null", suberrors.ErrNMissingChainData, method, params)
}

// ----------------- chain state -----------------

// GetStorage reads a raw storage value. A missing key is not an error.
func (c *NodeClient) GetStorage(ctx context.Context, key string, at *common.Hash) ([]byte, bool, error) {
	var value string
	found, err := c.Call(ctx, MethodGetStorage, &value, withBlock(at, key)...)
	if err != nil || !found {
		return nil, false, err
	}
	raw, err := common.DecodeHex(value)
	if err != nil {
		return nil, false, fmt.Errorf("%w: storage %s: %v", suberrors.ErrDMalformedHex, key, err)
	}
	return raw, true, nil
}

func (c *NodeClient) GetRuntimeVersion(ctx context.Context, at *common.Hash) (*types.RuntimeVersion, error) {
	var rv types.RuntimeVersion
	found, err := c.Call(ctx, MethodGetRuntimeVersion, &rv, withBlock(at)...)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, missing(MethodGetRuntimeVersion)
	}
	return &rv, nil
}

// GetMetadata returns the decoded metadata of the runtime active at the
// block, reusing the cached copy for a spec version already seen.
func (c *NodeClient) GetMetadata(ctx context.Context, at *common.Hash) (*metadata.Metadata, error) {
	rv, err := c.GetRuntimeVersion(ctx, at)
	if err != nil {
		return nil, err
	}
	if cached, ok := c.metadata.Get(rv.SpecVersion); ok {
		return cached.(*metadata.Metadata), nil
	}
	var blob string
	found, err := c.Call(ctx, MethodGetMetadata, &blob, withBlock(at)...)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, missing(MethodGetMetadata)
	}
	md, err := metadata.DecodeHex(blob)
	if err != nil {
		return nil, err
	}
	c.metadata.Add(rv.SpecVersion, md)
	log.Debug(log.RPCMonitoring, "metadata cached", "spec", rv.SpecName, "version", rv.SpecVersion, "metadata", md.Version)
	return md, nil
}

// GetBlockHash returns the hash of block number, or of the best block when
// number is nil.
func (c *NodeClient) GetBlockHash(ctx context.Context, number *uint64) (common.Hash, error) {
	var params []any
	if number != nil {
		params = append(params, *number)
	}
	var hash common.Hash
	found, err := c.Call(ctx, MethodGetBlockHash, &hash, params...)
	if err != nil {
		return common.Hash{}, err
	}
	if !found {
		return common.Hash{}, missing(MethodGetBlockHash, params...)
	}
	return hash, nil
}

func (c *NodeClient) GetHeader(ctx context.Context, hash *common.Hash) (*types.Header, error) {
	var header types.Header
	found, err := c.Call(ctx, MethodGetHeader, &header, withBlock(hash)...)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, missing(MethodGetHeader)
	}
	return &header, nil
}

// QueryFeeInfo asks the node to weigh an encoded extrinsic.
func (c *NodeClient) QueryFeeInfo(ctx context.Context, extrinsic []byte, at *common.Hash) (*types.FeeInfo, error) {
	var info types.FeeInfo
	found, err := c.Call(ctx, MethodQueryInfo, &info, withBlock(at, common.Bytes2Hex(extrinsic))...)
	if err != nil {
		return nil, err
	}
	if !found || info.PartialFee.Int == nil {
		return nil, missing(MethodQueryInfo)
	}
	return &info, nil
}

func (c *NodeClient) SubmitExtrinsic(ctx context.Context, extrinsic []byte) (common.Hash, error) {
	var hash common.Hash
	found, err := c.Call(ctx, MethodSubmitExtrinsic, &hash, common.Bytes2Hex(extrinsic))
	if err != nil {
		return common.Hash{}, err
	}
	if !found {
		return common.Hash{}, missing(MethodSubmitExtrinsic)
	}
	log.Info(log.RPCMonitoring, "extrinsic submitted", "hash", hash)
	return hash, nil
}
