package lcfsverity

import (
	"bytes"
	"testing"
)

func TestHasherSizeAndBlockSize(t *testing.T) {
	h := New()
	if h.Size() != DigestSize {
		t.Fatalf("Size() = %d, want %d", h.Size(), DigestSize)
	}
	if h.BlockSize() != BlockSize {
		t.Fatalf("BlockSize() = %d, want %d", h.BlockSize(), BlockSize)
	}
}

func TestHasherDeterministic(t *testing.T) {
	data := bytes.Repeat([]byte("x"), BlockSize*3+17)

	h1 := New()
	h1.Write(data)
	sum1 := h1.Sum(nil)

	h2 := New()
	h2.Write(data)
	sum2 := h2.Sum(nil)

	if !bytes.Equal(sum1, sum2) {
		t.Fatalf("two hashers over the same data disagreed")
	}
	if len(sum1) != DigestSize {
		t.Fatalf("len(sum) = %d, want %d", len(sum1), DigestSize)
	}
}

func TestHasherIndependentOfChunking(t *testing.T) {
	data := bytes.Repeat([]byte("y"), BlockSize*2+5)

	whole := New()
	whole.Write(data)
	wantSum := whole.Sum(nil)

	chunked := New()
	for i := 0; i < len(data); i += 7 {
		end := i + 7
		if end > len(data) {
			end = len(data)
		}
		chunked.Write(data[i:end])
	}
	gotSum := chunked.Sum(nil)

	if !bytes.Equal(wantSum, gotSum) {
		t.Fatalf("chunking changed the digest: whole=%x chunked=%x", wantSum, gotSum)
	}
}

func TestHasherEmptyInputIsStable(t *testing.T) {
	h := New()
	sum := h.Sum(nil)
	if len(sum) != DigestSize {
		t.Fatalf("len(sum) = %d, want %d", len(sum), DigestSize)
	}

	h2 := New()
	sum2 := h2.Sum(nil)
	if !bytes.Equal(sum, sum2) {
		t.Fatalf("empty-input digest not stable across instances")
	}
}

func TestHasherSumDoesNotMutateState(t *testing.T) {
	h := New()
	h.Write(bytes.Repeat([]byte("z"), 10))

	first := h.Sum(nil)
	h.Write([]byte("more"))
	second := h.Sum(nil)

	h2 := New()
	h2.Write(bytes.Repeat([]byte("z"), 10))
	h2.Write([]byte("more"))
	want := h2.Sum(nil)

	if bytes.Equal(first, second) {
		t.Fatalf("Sum did not reflect the additional Write")
	}
	if !bytes.Equal(second, want) {
		t.Fatalf("Sum after extra write = %x, want %x", second, want)
	}
}

func TestHasherDistinguishesContent(t *testing.T) {
	h1 := New()
	h1.Write([]byte("alpha"))

	h2 := New()
	h2.Write([]byte("beta"))

	if bytes.Equal(h1.Sum(nil), h2.Sum(nil)) {
		t.Fatalf("different content produced the same digest")
	}
}

func TestHasherReset(t *testing.T) {
	h := New()
	h.Write(bytes.Repeat([]byte("w"), BlockSize+3))
	h.Reset()

	fresh := New()
	if !bytes.Equal(h.Sum(nil), fresh.Sum(nil)) {
		t.Fatalf("Reset did not restore empty-input digest")
	}
}
