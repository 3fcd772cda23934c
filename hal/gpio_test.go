package hal

import "testing"

func TestVirtualPinFollowsPull(t *testing.T) {
	pin := newVirtualPin("GPIO11", gpioCapAll)
	if _, err := pin.Read(); err == nil {
		t.Fatal("expected error reading unconfigured pin")
	}

	if err := pin.Configure(GPIOModeInput, GPIOPullUp); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	level, err := pin.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !level {
		t.Fatal("expected high from pull-up")
	}

	pin.drive(false)
	if level, _ = pin.Read(); level {
		t.Fatal("expected low while driven")
	}

	pin.release()
	if level, _ = pin.Read(); !level {
		t.Fatal("expected high after release")
	}
}

func TestVirtualPinWriteRequiresOutput(t *testing.T) {
	pin := newVirtualPin("GPIO19", GPIOCapOutput)
	if err := pin.Configure(GPIOModeInput, GPIOPullNone); err == nil {
		t.Fatal("expected input to be rejected")
	}
	if err := pin.Write(true); err == nil {
		t.Fatal("expected write before configure to fail")
	}

	var seen []bool
	pin.onWrite = func(level bool) { seen = append(seen, level) }
	if err := pin.Configure(GPIOModeOutput, GPIOPullNone); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if err := pin.Write(true); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := pin.Write(false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(seen) != 2 || !seen[0] || seen[1] {
		t.Fatalf("onWrite saw %v, want [true false]", seen)
	}
	if pin.output() {
		t.Fatal("expected output low")
	}
}
