package monitor

type semaphore struct {
	c chan struct{}
}

func newSemaphore(size int) *semaphore {
	return &semaphore{c: make(chan struct{}, size)}
}

func (s *semaphore) acquire() {
	s.c <- struct{}{}
}

func (s *semaphore) release() {
	<-s.c
}
