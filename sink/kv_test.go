package sink

import "testing"

func TestApplyPutThenGet(t *testing.T) {
	kv := NewKV()
	if err := kv.Apply(EncodePut("foo", "bar")); err != nil {
		t.Fatalf("apply put: %v", err)
	}
	v, ok := kv.Get("foo")
	if !ok || v != "bar" {
		t.Fatalf("got (%q, %v), want (bar, true)", v, ok)
	}
}

func TestApplyPutOverwritesExistingKey(t *testing.T) {
	kv := NewKV()
	_ = kv.Apply(EncodePut("foo", "bar"))
	_ = kv.Apply(EncodePut("foo", "baz"))
	v, ok := kv.Get("foo")
	if !ok || v != "baz" {
		t.Fatalf("got (%q, %v), want (baz, true)", v, ok)
	}
}

func TestApplyDeleteRemovesKey(t *testing.T) {
	kv := NewKV()
	_ = kv.Apply(EncodePut("foo", "bar"))
	if err := kv.Apply(EncodeDelete("foo")); err != nil {
		t.Fatalf("apply delete: %v", err)
	}
	if _, ok := kv.Get("foo"); ok {
		t.Fatalf("expected foo to be absent after delete")
	}
}

func TestApplyDeleteOfMissingKeyIsNoop(t *testing.T) {
	kv := NewKV()
	if err := kv.Apply(EncodeDelete("missing")); err != nil {
		t.Fatalf("apply delete of missing key: %v", err)
	}
}

func TestGetOfMissingKeyReportsAbsent(t *testing.T) {
	kv := NewKV()
	if _, ok := kv.Get("missing"); ok {
		t.Fatalf("expected missing key to be absent")
	}
}

func TestApplyRejectsEmptyPayload(t *testing.T) {
	kv := NewKV()
	if err := kv.Apply(nil); err != ErrMalformedTransaction {
		t.Fatalf("got %v, want ErrMalformedTransaction", err)
	}
}

func TestApplyRejectsUnknownOp(t *testing.T) {
	kv := NewKV()
	payload := append([]byte{0x7f}, EncodePut("k", "v")[1:]...)
	if err := kv.Apply(payload); err != ErrMalformedTransaction {
		t.Fatalf("got %v, want ErrMalformedTransaction", err)
	}
}

func TestApplyRejectsTruncatedPayload(t *testing.T) {
	kv := NewKV()
	full := EncodePut("key", "value")
	if err := kv.Apply(full[:3]); err != ErrMalformedTransaction {
		t.Fatalf("got %v, want ErrMalformedTransaction", err)
	}
}
