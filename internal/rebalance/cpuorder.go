// Package rebalance implements the two dry-run rxq->PMD reassignment
// algorithms (§4.E): a one-shot cycle-ordered pass and an iterative
// idle-queue pass. Both operate in place on a *model.Model and report
// the number of rxqs virtually moved.
package rebalance

import (
	"bufio"
	"os"
	"sort"
	"strconv"
	"strings"
)

// CPUOrder is the round-robin-by-numa-then-core traversal order of
// core ids, derived from /proc/cpuinfo's processor/core id/physical
// id fields. No third-party topology library in the dependency corpus
// exposes these three raw fields directly (gopsutil's cpu.Info omits
// "physical id" and collapses hyperthread siblings), so this is a
// direct, small parser in the teacher's style rather than a library
// call — see the design notes for the full reasoning.
func CPUOrder(path string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	type cpu struct {
		processor int
		coreID    int
		physID    int
	}
	var cpus []cpu
	var cur cpu
	have := false

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if have {
				cpus = append(cpus, cur)
				cur = cpu{}
				have = false
			}
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])
		switch key {
		case "processor":
			cur.processor, _ = strconv.Atoi(val)
			have = true
		case "core id":
			cur.coreID, _ = strconv.Atoi(val)
		case "physical id":
			cur.physID, _ = strconv.Atoi(val)
		}
	}
	if have {
		cpus = append(cpus, cur)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	byNuma := make(map[int][]int)
	var numas []int
	for _, c := range cpus {
		if _, ok := byNuma[c.physID]; !ok {
			numas = append(numas, c.physID)
		}
		byNuma[c.physID] = append(byNuma[c.physID], c.processor)
	}
	sort.Ints(numas)
	for _, n := range numas {
		sort.Ints(byNuma[n])
	}

	var order []int
	i := 0
	for {
		added := false
		for _, n := range numas {
			list := byNuma[n]
			if i < len(list) {
				order = append(order, list[i])
				added = true
			}
		}
		if !added {
			break
		}
		i++
	}
	return order, nil
}
