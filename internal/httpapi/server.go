// Package httpapi exposes the core's register file, MSI-X table/PBA, and
// transaction monitor status over HTTP for debugging, grounded on
// monitoring.Monitor.StartServer's mux.NewRouter / mux.Vars inspection
// endpoints in the teacher repository. This surface is a debugging aid
// only; it has no bearing on the TLP-boundary contract.
package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/pprof"
	"strconv"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"

	"github.com/bsapcie/exerciser/internal/atc"
	"github.com/bsapcie/exerciser/internal/msixtable"
	"github.com/bsapcie/exerciser/internal/regs"
)

// namedRegisters lists the offsets surfaced by /api/registers, in BAR0
// layout order, §6.1.
var namedRegisters = []struct {
	Name   string
	Offset uint32
}{
	{"MSICTL", regs.MSICTL},
	{"INTXCTL", regs.INTXCTL},
	{"DMACTL", regs.DMACTL},
	{"DMA_OFFSET", regs.DMAOffset},
	{"DMA_BUS_ADDR_LO", regs.DMABusAddrLo},
	{"DMA_BUS_ADDR_HI", regs.DMABusAddrHi},
	{"DMA_LEN", regs.DMALen},
	{"DMA_STATUS", regs.DMAStatus},
	{"PASID_VAL", regs.PasidVal},
	{"ATSCTL", regs.ATSCTL},
	{"ATS_ADDR_LO", regs.ATSAddrLo},
	{"ATS_ADDR_HI", regs.ATSAddrHi},
	{"ATS_RANGE_SIZE", regs.ATSRangeSize},
	{"ATS_PERM", regs.ATSPerm},
	{"RID_CTL", regs.RIDCtl},
	{"TXN_CTRL", regs.TxnCtrl},
	{"ID", regs.ID},
}

// MonitorStatus is the narrow view of the transaction monitor this server
// needs; satisfied by *monitor.Monitor.
type MonitorStatus interface {
	Len() int
	Overflow() bool
}

// Server wires the inspection routes to the core's live state. It holds no
// state of its own beyond the pointers handed to New.
type Server struct {
	regFile *regs.RegisterFile
	table   *msixtable.Table
	pba     *msixtable.PBA
	atcache *atc.ATC
	mon     MonitorStatus

	router *mux.Router
}

// New wires a Server over the given components.
func New(regFile *regs.RegisterFile, table *msixtable.Table, pba *msixtable.PBA, atcache *atc.ATC, mon MonitorStatus) *Server {
	s := &Server{regFile: regFile, table: table, pba: pba, atcache: atcache, mon: mon}

	r := mux.NewRouter()
	r.HandleFunc("/api/registers", s.listRegisters)
	r.HandleFunc("/api/register/{name}", s.readRegister)
	r.HandleFunc("/api/msix/table", s.listVectors)
	r.HandleFunc("/api/msix/vector/{n}", s.readVector)
	r.HandleFunc("/api/msix/pba", s.readPBA)
	r.HandleFunc("/api/atc", s.readATC)
	r.HandleFunc("/api/monitor", s.monitorStatus)
	r.HandleFunc("/debug/profile", s.collectProfile)
	s.router = r

	return s
}

// Handler returns the http.Handler to mount, e.g. with http.ListenAndServe.
func (s *Server) Handler() http.Handler { return s.router }

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) listRegisters(w http.ResponseWriter, _ *http.Request) {
	out := make(map[string]uint32, len(namedRegisters))
	for _, reg := range namedRegisters {
		out[reg.Name] = s.regFile.Read(reg.Offset)
	}
	writeJSON(w, out)
}

func (s *Server) readRegister(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	for _, reg := range namedRegisters {
		if reg.Name == name {
			writeJSON(w, map[string]uint32{name: s.regFile.Read(reg.Offset)})
			return
		}
	}
	http.NotFound(w, r)
}

func (s *Server) listVectors(w http.ResponseWriter, _ *http.Request) {
	out := make([]msixtable.Entry, 0, msixtable.NumVectors)
	for v := 0; v < msixtable.NumVectors; v++ {
		e, _ := s.table.EntryFor(uint16(v))
		out = append(out, e)
	}
	writeJSON(w, out)
}

func (s *Server) readVector(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(mux.Vars(r)["n"])
	if err != nil {
		http.Error(w, "bad vector index", http.StatusBadRequest)
		return
	}
	e, ok := s.table.EntryFor(uint16(n))
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, e)
}

func (s *Server) readPBA(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]uint32{"bits": s.pba.Read(0)})
}

func (s *Server) readATC(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.atcache.Entry())
}

func (s *Server) monitorStatus(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprintf(w, `{"len":%d,"overflow":%t}`, s.mon.Len(), s.mon.Overflow())
}

// collectProfile captures one second of CPU profile on the process hosting
// this core and returns it as parsed pprof JSON, grounded on
// monitoring.Monitor.collectProfile in the teacher repository.
func (s *Server) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	if err := pprof.StartCPUProfile(buf); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	time.Sleep(time.Second)
	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, prof)
}
