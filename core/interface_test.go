package core

import "testing"

func TestSendRequestCoalescing(t *testing.T) {
	iface := &Interface{name: "eth0"}

	// Multiple unconsumed requests collapse into a single flag.
	iface.RequestSend(SendLDPHello)
	iface.RequestSend(SendLDPHello)
	iface.RequestSend(SendLDPHello)

	if !iface.SendPending(SendLDPHello) {
		t.Fatalf("SendLDPHello not pending after requests")
	}

	got := iface.ConsumeSendRequests()
	if got != SendLDPHello {
		t.Fatalf("ConsumeSendRequests = %b, want single SendLDPHello bit", got)
	}
	if iface.SendPending(SendLDPHello) {
		t.Fatalf("flag still pending after consume")
	}
	if extra := iface.ConsumeSendRequests(); extra != 0 {
		t.Fatalf("second consume = %b, want 0 (no queueing)", extra)
	}
}

func TestCountersAccumulate(t *testing.T) {
	iface := &Interface{name: "eth0"}

	iface.CountTx(100)
	iface.CountTx(200)
	iface.CountRx(64)

	s := iface.Stats()
	if s.PacketsTx != 2 || s.BytesTx != 300 {
		t.Errorf("tx counters = %d pkts / %d bytes, want 2 / 300", s.PacketsTx, s.BytesTx)
	}
	if s.PacketsRx != 1 || s.BytesRx != 64 {
		t.Errorf("rx counters = %d pkts / %d bytes, want 1 / 64", s.PacketsRx, s.BytesRx)
	}
}
