package library

import "slices"

// ReservationQueue keeps one FIFO of waiting user ids per ISBN.
type ReservationQueue struct {
	waiting map[string][]string
}

func NewReservationQueue() *ReservationQueue {
	return &ReservationQueue{waiting: make(map[string][]string)}
}

// Enqueue appends userID to the back of the isbn queue.
func (q *ReservationQueue) Enqueue(isbn, userID string) {
	q.waiting[isbn] = append(q.waiting[isbn], userID)
}

// Dequeue pops the earliest waiting user for isbn.
func (q *ReservationQueue) Dequeue(isbn string) (string, bool) {
	users := q.waiting[isbn]
	if len(users) == 0 {
		return "", false
	}
	next := users[0]
	if len(users) == 1 {
		delete(q.waiting, isbn)
	} else {
		q.waiting[isbn] = users[1:]
	}
	return next, true
}

// Cancel removes userID from the isbn queue, keeping everyone else's order.
func (q *ReservationQueue) Cancel(isbn, userID string) bool {
	users := q.waiting[isbn]
	i := slices.Index(users, userID)
	if i < 0 {
		return false
	}
	users = slices.Delete(slices.Clone(users), i, i+1)
	if len(users) == 0 {
		delete(q.waiting, isbn)
	} else {
		q.waiting[isbn] = users
	}
	return true
}

func (q *ReservationQueue) Contains(isbn, userID string) bool {
	return slices.Contains(q.waiting[isbn], userID)
}

func (q *ReservationQueue) Len(isbn string) int { return len(q.waiting[isbn]) }

// Waiting returns a copy of the isbn queue, earliest first.
func (q *ReservationQueue) Waiting(isbn string) []string {
	return slices.Clone(q.waiting[isbn])
}

// Drop forgets the whole isbn queue.
func (q *ReservationQueue) Drop(isbn string) {
	delete(q.waiting, isbn)
}
