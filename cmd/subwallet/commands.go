package main

import (
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/colorfulnotion/subwallet/common"
	"github.com/colorfulnotion/subwallet/controller"
	"github.com/colorfulnotion/subwallet/crypto"
	"github.com/colorfulnotion/subwallet/metadata"
	"github.com/colorfulnotion/subwallet/transaction"
	"github.com/spf13/cobra"
)

func addressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "address <address|hex account id>",
		Short: "Show an account in the network's address format",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			codec := loadNetwork().AddressCodec()
			raw, err := codec.Decode(args[0])
			if err != nil {
				fatalErr("decoding address", err)
			}
			addr, err := codec.Encode(raw)
			if err != nil {
				fatalErr("encoding address", err)
			}
			writeJSON("", map[string]string{"address": addr, "account_id": common.Bytes2Hex(raw)})
		},
	}
}

func storageKeyCmd() *cobra.Command {
	var (
		pallet       string
		item         string
		keyArgs      []string
		metadataFile string
	)
	cmd := &cobra.Command{
		Use:   "storage-key",
		Short: "Derive the storage key of a pallet item",
		Long: `Derives twox128(pallet) ++ twox128(item) ++ hashed arguments. Arguments are
addresses or hex encoded SCALE values. With --metadata-file no node is contacted.`,
		Run: func(cmd *cobra.Command, args []string) {
			network := loadNetwork()
			encoded := make([][]byte, 0, len(keyArgs))
			for _, a := range keyArgs {
				raw, err := storageArg(network, a)
				if err != nil {
					fatalErr("reading argument", err)
				}
				encoded = append(encoded, raw)
			}
			var key string
			if metadataFile != "" {
				md := readMetadataFile(metadataFile)
				entry, err := md.Decorate(metadata.Selector{pallet + "." + item}, metadata.Selector{}, metadata.Selector{}).StorageEntry(pallet, item)
				if err != nil {
					fatalErr("storage-key", err)
				}
				if key, err = entry.Hash(encoded...); err != nil {
					fatalErr("storage-key", err)
				}
			} else {
				ctx, cancel := withTimeout()
				defer cancel()
				s := openSession(ctx)
				defer s.Close()
				var err error
				if key, err = s.StorageKey(ctx, pallet, item, encoded...); err != nil {
					fatalErr("storage-key", err)
				}
			}
			fmt.Println(key)
		},
	}
	cmd.Flags().StringVar(&pallet, "pallet", "System", "Storage prefix of the pallet")
	cmd.Flags().StringVar(&item, "item", "Account", "Storage item name")
	cmd.Flags().StringSliceVar(&keyArgs, "arg", nil, "Key argument, address or hex (repeatable)")
	cmd.Flags().StringVar(&metadataFile, "metadata-file", "", "Hex metadata blob to use instead of a node")
	return cmd
}

func metadataCmd() *cobra.Command {
	var metadataFile string
	cmd := &cobra.Command{
		Use:   "metadata",
		Short: "List the pallets and calls of the runtime",
		Run: func(cmd *cobra.Command, args []string) {
			var md *metadata.Metadata
			if metadataFile != "" {
				md = readMetadataFile(metadataFile)
			} else {
				ctx, cancel := withTimeout()
				defer cancel()
				s := openSession(ctx)
				defer s.Close()
				var err error
				if md, err = s.node.GetMetadata(ctx, nil); err != nil {
					fatalErr("metadata", err)
				}
			}
			fmt.Printf("metadata v%d, extrinsic v%d, %d pallets\n", md.Version, md.Extrinsic.Version, len(md.Pallets))
			decorated := md.Decorate(metadata.Selector{}, transaction.Selector(), metadata.Selector{})
			for _, p := range md.Pallets {
				fmt.Printf("  [%3d] %-24s calls=%-3d storage=%-3d constants=%d\n", p.Index, p.Name, len(p.Calls), len(p.Storage), len(p.Constants))
			}
			fmt.Printf("wallet calls:\n")
			for _, c := range decorated.Calls {
				t, _ := transaction.TypeOf(c)
				fmt.Printf("  %-28s %s.%s [%d, %d]\n", t, c.Pallet, c.Name, c.PalletIndex, c.CallIndex)
			}
		},
	}
	cmd.Flags().StringVar(&metadataFile, "metadata-file", "", "Hex metadata blob to use instead of a node")
	return cmd
}

func balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <address>",
		Short: "Show System.Account of an address",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := withTimeout()
			defer cancel()
			s := openSession(ctx)
			defer s.Close()
			info, err := s.GetAccountInfo(ctx, args[0])
			if err != nil {
				fatalErr("balance", err)
			}
			writeJSON("", map[string]any{
				"nonce":        info.Nonce,
				"free":         info.Data.Free.String(),
				"reserved":     info.Data.Reserved.String(),
				"frozen":       info.Data.Frozen.String(),
				"transferable": info.Transferable().String(),
				"symbol":       s.Network.Symbol,
				"decimals":     s.Network.Decimals,
			})
		},
	}
}

func prepareCmd() *cobra.Command {
	var (
		from      string
		requests  string
		available string
		out       string
	)
	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Build an unsigned batch from a JSON list of requests",
		Long: `Reads [{"type": "transfer", "args": {"to": "...", "value": 1}}, ...] and
writes the unsigned batch. Fails before anything is written when the fees
exceed the available balance.`,
		Run: func(cmd *cobra.Command, args []string) {
			var reqs []controller.Request
			readJSON(requests, &reqs)
			ctx, cancel := withTimeout()
			defer cancel()
			s := openSession(ctx)
			defer s.Close()
			unsigned, err := s.PrepareSubmittableTransactions(ctx, from, parseAmount(available), reqs)
			if err != nil {
				fatalErr("prepare", err)
			}
			writeJSON(out, unsigned)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Sender address")
	cmd.Flags().StringVar(&requests, "requests", "-", "Requests JSON file, - for stdin")
	cmd.Flags().StringVar(&available, "available", "", "Balance the fees must fit in (defaults to the transferable balance)")
	cmd.Flags().StringVar(&out, "out", "", "Output file (defaults to stdout)")
	cmd.MarkFlagRequired("from")
	return cmd
}

func estimateFeesCmd() *cobra.Command {
	var (
		from     string
		requests string
	)
	cmd := &cobra.Command{
		Use:   "estimate-fees",
		Short: "Forecast the fees of a JSON list of requests",
		Run: func(cmd *cobra.Command, args []string) {
			var reqs []controller.Request
			readJSON(requests, &reqs)
			ctx, cancel := withTimeout()
			defer cancel()
			s := openSession(ctx)
			defer s.Close()
			fee, err := s.EstimateTransactionFees(ctx, from, reqs)
			if err != nil {
				fatalErr("estimate-fees", err)
			}
			writeJSON("", map[string]string{"fee": fee.String(), "display": formatUnits(fee, s.Network.Decimals) + " " + s.Network.Symbol})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Sender address (defaults to a placeholder account)")
	cmd.Flags().StringVar(&requests, "requests", "-", "Requests JSON file, - for stdin")
	return cmd
}

func signCmd() *cobra.Command {
	var (
		in       string
		seed     string
		seedFile string
		out      string
	)
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign an unsigned batch offline",
		Run: func(cmd *cobra.Command, args []string) {
			if seedFile != "" {
				raw, err := os.ReadFile(seedFile)
				if err != nil {
					fatalf("reading seed: %v", err)
				}
				seed = string(raw)
			}
			if seed == "" {
				fatalf("one of --seed or --seed-file is required")
			}
			c := offline()
			signer, err := crypto.SignerFromHex(c.Network.Signature, strings.TrimSpace(seed))
			if err != nil {
				fatalErr("loading key", err)
			}
			var unsigned transaction.UnsignedTransaction
			readJSON(in, &unsigned)
			summaries, err := c.Summaries(unsigned.Batch)
			if err != nil {
				fatalErr("decoding batch", err)
			}
			for i, sm := range summaries {
				fmt.Fprintf(os.Stderr, "  %d: %s from %s to %v amount %v fee %v\n", i, sm.Type, sm.From, sm.To, sm.Amount, sm.Fee)
			}
			signed, err := c.Sign(&unsigned, signer)
			if err != nil {
				fatalErr("sign", err)
			}
			writeJSON(out, signed)
		},
	}
	cmd.Flags().StringVar(&in, "in", "-", "Unsigned batch JSON file, - for stdin")
	cmd.Flags().StringVar(&seed, "seed", "", "Hex secret seed")
	cmd.Flags().StringVar(&seedFile, "seed-file", "", "File holding the hex secret seed")
	cmd.Flags().StringVar(&out, "out", "", "Output file (defaults to stdout)")
	return cmd
}

func decodeBatchCmd() *cobra.Command {
	var in string
	cmd := &cobra.Command{
		Use:   "decode-batch [hex batch]",
		Short: "Summarize the calls of a batch",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			batch := ""
			if len(args) == 1 {
				batch = args[0]
			} else {
				var envelope transaction.SignedTransaction
				readJSON(in, &envelope)
				batch = envelope.Batch
			}
			summaries, err := offline().Summaries(batch)
			if err != nil {
				fatalErr("decode-batch", err)
			}
			writeJSON("", summaries)
		},
	}
	cmd.Flags().StringVar(&in, "in", "-", "Batch JSON file when no hex argument is given")
	return cmd
}

func broadcastCmd() *cobra.Command {
	var in string
	cmd := &cobra.Command{
		Use:   "broadcast",
		Short: "Submit a signed batch",
		Run: func(cmd *cobra.Command, args []string) {
			var signed transaction.SignedTransaction
			readJSON(in, &signed)
			ctx, cancel := withTimeout()
			defer cancel()
			s := openSession(ctx)
			defer s.Close()
			hashes, err := s.Broadcast(ctx, &signed)
			for _, h := range hashes {
				fmt.Println(h.Hex())
			}
			if err != nil {
				fatalErr("broadcast", err)
			}
		},
	}
	cmd.Flags().StringVar(&in, "in", "-", "Signed batch JSON file, - for stdin")
	return cmd
}

// formatUnits renders v with the network's decimals.
func formatUnits(v *big.Int, decimals uint8) string {
	if decimals == 0 {
		return v.String()
	}
	unit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(v, unit, new(big.Int))
	return fmt.Sprintf("%s.%0*d", whole, int(decimals), frac)
}
