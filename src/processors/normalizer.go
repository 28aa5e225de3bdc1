package processors

import (
	"github.com/username/bitgains/backend/src/models"
	"github.com/username/bitgains/backend/src/utils"
)

// NormalizeOptions controls how raw movements become transactions.
type NormalizeOptions struct {
	// Summarize merges all movements sharing a txid into one transaction.
	// When false every movement becomes its own transaction, one row per
	// input/output touched, useful for blockchain-level auditing.
	Summarize bool
	// DisableTransfer turns off transfer detection; every movement is then
	// classified by its net sign alone.
	DisableTransfer bool
	// IncludeTransfer keeps transfer-classified transactions in the stream.
	// They never create or consume lots either way.
	IncludeTransfer bool
}

// Normalizer merges raw value-movement records into per-transaction events
// and classifies each as purchase, sale or transfer.
type Normalizer struct{}

func NewNormalizer() *Normalizer { return &Normalizer{} }

// merged is an intermediate row with a single authoritative net direction.
type merged struct {
	blockTime int64
	addr      string
	txID      string
	in        int64 // net inbound satoshi, 0 if the row is net-outbound
	out       int64 // net outbound satoshi, 0 if the row is net-inbound
}

// Normalize turns a batch of raw movements into classified transactions.
// Exchange rates are not filled in here; price enrichment is the caller's
// job and must fail loudly when a rate is missing rather than emit zeros.
func (n *Normalizer) Normalize(movs []models.RawMovement, opts NormalizeOptions) []models.Transaction {
	rows := n.mergeRows(movs, opts.Summarize)

	// Batch-wide totals per txid: value sent by the watched set (vinSum)
	// and received by it (voutSum). A movement's counterpart may live in a
	// different row of the same txid, so these are computed up front.
	vinSum := make(map[string]int64)
	voutSum := make(map[string]int64)
	for _, r := range rows {
		vinSum[r.txID] += r.out
		voutSum[r.txID] += r.in
	}

	var txs []models.Transaction
	emit := func(r merged, typ models.TxType, in, out int64) {
		if typ == models.TxTransfer && !opts.IncludeTransfer {
			return
		}
		txs = append(txs, models.Transaction{
			BlockTime: r.blockTime,
			Addr:      r.addr,
			AmountIn:  in,
			AmountOut: out,
			TxID:      r.txID,
			Type:      typ,
		})
	}

	for _, r := range rows {
		switch {
		case r.in > 0:
			matched := int64(0)
			if !opts.DisableTransfer {
				matched = utils.MinInt64(r.in, vinSum[r.txID])
			}
			if matched > 0 {
				emit(r, models.TxTransfer, matched, 0)
			}
			if rest := r.in - matched; rest > 0 {
				emit(r, models.TxPurchase, rest, 0)
			}
		case r.out > 0:
			matched := int64(0)
			if !opts.DisableTransfer {
				matched = utils.MinInt64(r.out, voutSum[r.txID])
			}
			if matched > 0 {
				emit(r, models.TxTransfer, 0, matched)
			}
			if rest := r.out - matched; rest > 0 {
				emit(r, models.TxSale, 0, rest)
			}
		default:
			// Net zero: value circled within the watched set.
			emit(r, models.TxTransfer, 0, 0)
		}
	}
	return txs
}

// mergeRows reduces movements to rows with one net direction each,
// grouping by txid when summarize is on.
func (n *Normalizer) mergeRows(movs []models.RawMovement, summarize bool) []merged {
	if !summarize {
		rows := make([]merged, 0, len(movs))
		for _, m := range movs {
			rows = append(rows, netRow(m.BlockTime, m.Addr, m.TxID, m.AmountIn, m.AmountOut))
		}
		return rows
	}

	type group struct {
		blockTime  int64
		txID       string
		in, out    int64
		lastInAddr string
		lastOut    string
	}
	order := make([]string, 0, len(movs))
	groups := make(map[string]*group)
	for _, m := range movs {
		g, ok := groups[m.TxID]
		if !ok {
			g = &group{blockTime: m.BlockTime, txID: m.TxID}
			groups[m.TxID] = g
			order = append(order, m.TxID)
		}
		g.in += m.AmountIn
		g.out += m.AmountOut
		if m.AmountIn > 0 {
			g.lastInAddr = m.Addr
		}
		if m.AmountOut > 0 {
			g.lastOut = m.Addr
		}
	}

	rows := make([]merged, 0, len(order))
	for _, txid := range order {
		g := groups[txid]
		// The merged addr follows the net direction; reporting only,
		// no accounting effect.
		addr := g.lastInAddr
		if g.in-g.out < 0 || addr == "" {
			if g.lastOut != "" {
				addr = g.lastOut
			}
		}
		rows = append(rows, netRow(g.blockTime, addr, txid, g.in, g.out))
	}
	return rows
}

func netRow(blockTime int64, addr, txid string, in, out int64) merged {
	r := merged{blockTime: blockTime, addr: addr, txID: txid}
	switch net := in - out; {
	case net > 0:
		r.in = net
	case net < 0:
		r.out = -net
	}
	return r
}
