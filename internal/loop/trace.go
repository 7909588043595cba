package loop

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/netcontrold/ncd/internal/exec"
	"github.com/netcontrold/ncd/internal/model"
)

// Trace inspects every port's drop ppm and tx_retries against the
// configured thresholds; if any port exceeds either, it collects the
// distinct set of PMDs owning that port's rxqs and invokes callback
// with their core ids as arguments (§4.F tracing sub-behavior). Trace
// runs every window regardless of rebalance state — it is orthogonal
// to the decision loop's own control flow.
func Trace(ctx context.Context, ex exec.Executor, m *model.Model, callback string, dropPPMThresh, txRetryThresh int64) error {
	pmdSet := make(map[int]bool)

	for _, pmd := range m.PmdMap {
		for _, port := range pmd.PortMap {
			rxPPM, txPPM := port.DropPPM()
			retries := port.TxRetries()
			if rxPPM >= dropPPMThresh || txPPM >= dropPPMThresh || retries >= txRetryThresh {
				pmdSet[pmd.ID] = true
			}
		}
	}

	if len(pmdSet) == 0 {
		return nil
	}

	ids := make([]int, 0, len(pmdSet))
	for id := range pmdSet {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	args := make([]string, len(ids))
	for i, id := range ids {
		args[i] = strconv.Itoa(id)
	}

	cmd := fmt.Sprintf("%s %s", callback, strings.Join(args, " "))
	_, err := ex.Exec(ctx, cmd)
	return err
}
