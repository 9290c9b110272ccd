// Package month прибавляет календарные месяцы к датам без переполнения в
// следующий месяц.
package month

import "time"

// Add прибавляет n месяцев к t. Если в целевом месяце нет такого дня,
// берётся его последний день: 31 января + 1 месяц = 28 (29) февраля.
func Add(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := DaysIn(first); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

// DaysIn возвращает число дней в месяце даты t.
func DaysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}
