package memory

import (
	"testing"

	"nesemu/internal/cartridge"
)

type RegisterWrite struct {
	Address uint16
	Value   uint8
}

// MockPPU implements PPUInterface for testing
type MockPPU struct {
	registers  [8]uint8
	readCalls  []uint16
	writeCalls []RegisterWrite
}

func (m *MockPPU) ReadRegister(address uint16) uint8 {
	m.readCalls = append(m.readCalls, address)
	return m.registers[address&0x7]
}

func (m *MockPPU) WriteRegister(address uint16, value uint8) {
	m.writeCalls = append(m.writeCalls, RegisterWrite{Address: address, Value: value})
	m.registers[address&0x7] = value
}

// MockAPU implements APUInterface for testing
type MockAPU struct {
	status     uint8
	writeCalls []RegisterWrite
}

func (m *MockAPU) WriteRegister(address uint16, value uint8) {
	m.writeCalls = append(m.writeCalls, RegisterWrite{Address: address, Value: value})
}

func (m *MockAPU) ReadStatus() uint8 {
	return m.status
}

// MockInput implements InputInterface for testing
type MockInput struct {
	bit    uint8
	writes []RegisterWrite
}

func (m *MockInput) Read(address uint16) uint8 { return m.bit }

func (m *MockInput) Write(address uint16, value uint8) {
	m.writes = append(m.writes, RegisterWrite{Address: address, Value: value})
}

// MockCartridge implements CartridgeInterface for testing
type MockCartridge struct {
	prgData   [0x10000]uint8
	chrData   [0x2000]uint8
	mirror    cartridge.MirrorMode
	prgWrites []RegisterWrite
}

func (m *MockCartridge) ReadPRG(address uint16) uint8 { return m.prgData[address] }

func (m *MockCartridge) WritePRG(address uint16, value uint8) {
	m.prgWrites = append(m.prgWrites, RegisterWrite{Address: address, Value: value})
	if address < 0x8000 {
		m.prgData[address] = value
	}
}

func (m *MockCartridge) ReadCHR(address uint16) uint8 { return m.chrData[address&0x1FFF] }

func (m *MockCartridge) WriteCHR(address uint16, value uint8) { m.chrData[address&0x1FFF] = value }

func (m *MockCartridge) Mirroring() cartridge.MirrorMode { return m.mirror }

func newTestMemory() (*Memory, *MockPPU, *MockAPU, *MockInput, *MockCartridge) {
	ppu := &MockPPU{}
	apu := &MockAPU{}
	input := &MockInput{}
	cart := &MockCartridge{}
	mem := New(ppu, apu, cart)
	mem.SetInputSystem(input)
	return mem, ppu, apu, input, cart
}

func TestRAMMirroring(t *testing.T) {
	mem, _, _, _, _ := newTestMemory()

	mem.Write(0x0123, 0x42)
	for _, mirror := range []uint16{0x0123, 0x0923, 0x1123, 0x1923} {
		if got := mem.Read(mirror); got != 0x42 {
			t.Errorf("Read(0x%04X): expected 0x42, got 0x%02X", mirror, got)
		}
	}

	mem.Write(0x1FFF, 0x99)
	if got := mem.Read(0x07FF); got != 0x99 {
		t.Errorf("Write to $1FFF should land in $07FF, got 0x%02X", got)
	}
}

func TestPPURegisterMirroring(t *testing.T) {
	mem, ppu, _, _, _ := newTestMemory()

	mem.Write(0x3FFE, 0x1E) // mirrors $2006
	mem.Write(0x200D, 0x05) // mirrors $2005

	want := []RegisterWrite{{0x2006, 0x1E}, {0x2005, 0x05}}
	if len(ppu.writeCalls) != len(want) {
		t.Fatalf("Expected %d PPU writes, got %d", len(want), len(ppu.writeCalls))
	}
	for i, w := range want {
		if ppu.writeCalls[i] != w {
			t.Errorf("PPU write %d: expected %+v, got %+v", i, w, ppu.writeCalls[i])
		}
	}

	mem.Read(0x2A02)
	if len(ppu.readCalls) != 1 || ppu.readCalls[0] != 0x2002 {
		t.Errorf("Expected read of $2002, got %v", ppu.readCalls)
	}
}

func TestAPURouting(t *testing.T) {
	mem, _, apu, input, _ := newTestMemory()

	for _, addr := range []uint16{0x4000, 0x4013, 0x4015, 0x4017} {
		mem.Write(addr, 0x80)
	}
	if len(apu.writeCalls) != 4 {
		t.Errorf("Expected 4 APU writes, got %d: %+v", len(apu.writeCalls), apu.writeCalls)
	}

	mem.Write(0x4016, 0x01)
	if len(input.writes) != 1 || input.writes[0].Value != 0x01 {
		t.Errorf("Expected strobe write to reach input, got %+v", input.writes)
	}
	if len(apu.writeCalls) != 4 {
		t.Error("$4016 must not reach the APU")
	}

	mem.Write(0x4018, 0x55)
	if len(apu.writeCalls) != 4 {
		t.Error("Test registers must be ignored")
	}
}

func TestOpenBus(t *testing.T) {
	mem, _, apu, input, _ := newTestMemory()

	mem.Write(0x0000, 0xA5)
	mem.Read(0x0000)
	if got := mem.Read(0x5000); got != 0xA5 {
		t.Errorf("Unmapped read: expected open bus 0xA5, got 0x%02X", got)
	}
	if got := mem.Read(0x4000); got != 0xA5 {
		t.Errorf("Write-only APU register: expected open bus 0xA5, got 0x%02X", got)
	}

	// Controller reads keep the upper three bits of the bus
	input.bit = 1
	mem.Write(0x0000, 0x40)
	mem.Read(0x0000)
	if got := mem.Read(0x4016); got != 0x41 {
		t.Errorf("Controller read: expected 0x41, got 0x%02X", got)
	}

	// $4015 bit 5 floats
	apu.status = 0x1F
	mem.Write(0x0000, 0x20)
	mem.Read(0x0000)
	if got := mem.Read(0x4015); got != 0x3F {
		t.Errorf("$4015 read: expected 0x3F, got 0x%02X", got)
	}
}

func TestNoCartridgeReturnsOpenBus(t *testing.T) {
	mem := New(&MockPPU{}, &MockAPU{}, nil)
	mem.Write(0x0010, 0x77)
	mem.Read(0x0010)
	if got := mem.Read(0x8000); got != 0x77 {
		t.Errorf("Expected open bus 0x77 without cartridge, got 0x%02X", got)
	}
}

func TestCartridgeWindow(t *testing.T) {
	mem, _, _, _, cart := newTestMemory()
	cart.prgData[0x8000] = 0x4C
	cart.prgData[0xFFFC] = 0x00

	if got := mem.Read(0x8000); got != 0x4C {
		t.Errorf("Expected PRG byte 0x4C, got 0x%02X", got)
	}

	mem.Write(0x6000, 0x12)
	if got := mem.Read(0x6000); got != 0x12 {
		t.Errorf("PRG RAM: expected 0x12, got 0x%02X", got)
	}

	mem.Write(0xA000, 0x03)
	last := cart.prgWrites[len(cart.prgWrites)-1]
	if last.Address != 0xA000 || last.Value != 0x03 {
		t.Errorf("Mapper write not forwarded: %+v", last)
	}
}

func TestOAMDMARequest(t *testing.T) {
	mem, ppu, _, _, _ := newTestMemory()

	if _, ok := mem.TakeDMA(); ok {
		t.Fatal("No DMA should be pending initially")
	}

	mem.Write(0x4014, 0x02)
	page, ok := mem.TakeDMA()
	if !ok || page != 0x02 {
		t.Errorf("Expected DMA request for page 0x02, got page 0x%02X ok=%t", page, ok)
	}
	if _, ok := mem.TakeDMA(); ok {
		t.Error("TakeDMA should clear the request")
	}
	if len(ppu.writeCalls) != 0 {
		t.Error("The bus must not copy OAM itself")
	}
}

func TestPeekHasNoSideEffects(t *testing.T) {
	mem, ppu, _, _, _ := newTestMemory()
	mem.Write(0x0001, 0x33)
	mem.Peek(0x2002)
	if len(ppu.readCalls) != 0 {
		t.Error("Peek must not read PPU registers")
	}
	if got := mem.Peek(0x0801); got != 0x33 {
		t.Errorf("Peek RAM mirror: expected 0x33, got 0x%02X", got)
	}
}

func TestMemoryStateRoundTrip(t *testing.T) {
	mem, _, _, _, _ := newTestMemory()
	mem.Write(0x0200, 0xAB)
	mem.Write(0x4014, 0x03)
	s := mem.SaveState()

	mem.ClearRAM()
	if mem.Read(0x0200) != 0 {
		t.Fatal("ClearRAM should zero RAM")
	}

	mem.LoadState(s)
	if got := mem.Read(0x0200); got != 0xAB {
		t.Errorf("RAM not restored: got 0x%02X", got)
	}
	if page, ok := mem.TakeDMA(); !ok || page != 0x03 {
		t.Errorf("DMA latch not restored: page 0x%02X ok=%t", page, ok)
	}
}
