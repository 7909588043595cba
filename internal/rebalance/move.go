package rebalance

import (
	"github.com/netcontrold/ncd/internal/model"
	"github.com/netcontrold/ncd/internal/ring"
)

// move simulates reassigning rxq from owner to receiver: it clears the
// rxq from the owner's live port map, records rxq_rebalanced on that
// port, and inserts the rxq into a clone of the port under the
// receiver (creating the clone on first use), then mirrors the rxq's
// contribution between the two pmds' aggregate rings. Callers must
// have already verified owner.NumaID == receiver.NumaID and
// owner.ID != receiver.ID (§8).
func move(rxq *model.Rxq, owner, receiver *model.Pmd) {
	ownerPort := rxq.Port
	name := ownerPort.Name

	receiverPort := receiver.FindPortByName(name)
	if receiverPort == nil {
		clone, _ := model.NewPort(name, ownerPort.RxCyc.Len())
		clone.ID = ownerPort.ID
		clone.NumaID = ownerPort.NumaID
		clone.Type = ownerPort.Type
		receiver.PortMap[name] = clone
		receiverPort = clone
	}

	delete(ownerPort.RxqMap, rxq.ID)
	ownerPort.RxqRebalanced[rxq.ID] = receiver.ID
	receiverPort.RxqMap[rxq.ID] = rxq
	rxq.Port = receiverPort
	rxq.Pmd = receiver

	procCyc := rxq.CpuCyc.Sum()
	rxCyc := rxq.RxCyc.Sum()

	addAtLast(owner.ProcCpuCyc, -procCyc)
	addAtLast(owner.IdleCpuCyc, procCyc)
	addAtLast(owner.RxCyc, -rxCyc)

	addAtLast(receiver.ProcCpuCyc, procCyc)
	addAtLast(receiver.IdleCpuCyc, -procCyc)
	addAtLast(receiver.RxCyc, rxCyc)
}

// addAtLast adjusts the most recently written sample of r by delta,
// the slot the collector last populated and the one the estimator's
// sorted-diff window currently treats as "now".
func addAtLast(r *ring.Ring, delta int64) {
	idx := (r.Cursor() - 1 + r.Len()) % r.Len()
	r.Set(idx, r.At(idx)+delta)
}
