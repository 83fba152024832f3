package hwio

import (
	"fmt"
	"sort"
)

type port struct {
	addr uint16
	io   BankIO8
}

// rangeTable holds the mapped ports sorted by address.
type rangeTable struct {
	ports []port
}

func (rt *rangeTable) index(addr uint16) int {
	return sort.Search(len(rt.ports), func(i int) bool {
		return rt.ports[i].addr >= addr
	})
}

func (rt *rangeTable) insert(addr uint16, io BankIO8) error {
	i := rt.index(addr)
	if i < len(rt.ports) && rt.ports[i].addr == addr {
		return fmt.Errorf("port %04x already mapped", addr)
	}
	rt.ports = append(rt.ports, port{})
	copy(rt.ports[i+1:], rt.ports[i:])
	rt.ports[i] = port{addr: addr, io: io}
	return nil
}

// remove unmaps every port in [begin, end].
func (rt *rangeTable) remove(begin, end uint16) {
	lo := rt.index(begin)
	hi := lo
	for hi < len(rt.ports) && rt.ports[hi].addr <= end {
		hi++
	}
	rt.ports = append(rt.ports[:lo], rt.ports[hi:]...)
}

func (rt *rangeTable) search(addr uint16) BankIO8 {
	i := rt.index(addr)
	if i < len(rt.ports) && rt.ports[i].addr == addr {
		return rt.ports[i].io
	}
	return nil
}
