package profile

// SingletonReader adapts a Reader by discarding repeated records, leaving
// only words that occurred exactly once. The prefetch invariant carries
// over: the head, when present, is always a singleton.
type SingletonReader struct {
	r    *Reader
	word []byte // copy of the last popped word; settle may refill the reader's buffers more than once
}

// NewSingletonReader wraps r, skipping past any leading repeated records.
func NewSingletonReader(r *Reader) (*SingletonReader, error) {
	s := &SingletonReader{r: r}
	if err := s.settle(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SingletonReader) settle() error {
	for !s.r.Empty() && s.r.Peek().Repeated {
		if _, err := s.r.Pop(); err != nil {
			return err
		}
	}
	return nil
}

func (s *SingletonReader) Empty() bool { return s.r.Empty() }

func (s *SingletonReader) Peek() Item { return s.r.Peek() }

// Pop consumes and returns the head. The returned Word stays valid until
// the next Pop.
func (s *SingletonReader) Pop() (Item, error) {
	it, err := s.r.Pop()
	if err != nil {
		return Item{}, err
	}
	s.word = append(s.word[:0], it.Word...)
	it.Word = s.word
	return it, s.settle()
}

func (s *SingletonReader) Close() error { return s.r.Close() }
