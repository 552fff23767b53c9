package controller

import (
	"context"

	"github.com/colorfulnotion/subwallet/common"
	"github.com/colorfulnotion/subwallet/metadata"
	"github.com/colorfulnotion/subwallet/types"
)

// NodeClient is the chain access the controller needs. A nil block hash
// means the best block.
type NodeClient interface {
	GetStorage(ctx context.Context, key string, at *common.Hash) ([]byte, bool, error)
	GetMetadata(ctx context.Context, at *common.Hash) (*metadata.Metadata, error)
	GetRuntimeVersion(ctx context.Context, at *common.Hash) (*types.RuntimeVersion, error)
	// GetBlockHash with a nil number returns the best block hash.
	GetBlockHash(ctx context.Context, number *uint64) (common.Hash, error)
	GetHeader(ctx context.Context, hash *common.Hash) (*types.Header, error)
	QueryFeeInfo(ctx context.Context, extrinsic []byte, at *common.Hash) (*types.FeeInfo, error)
	SubmitExtrinsic(ctx context.Context, extrinsic []byte) (common.Hash, error)
}
