package repository

import (
	"educontrol/internal/model"
	"educontrol/internal/store"
)

type Grades struct {
	*collection[model.GradeRecord]
}

func NewGrades(g store.Gateway) *Grades {
	return &Grades{newCollection(g, store.KeyGrades, func(r model.GradeRecord) string { return r.ID }, nil)}
}

type Discipline struct {
	*collection[model.DisciplineRecord]
}

func NewDiscipline(g store.Gateway) *Discipline {
	return &Discipline{newCollection(g, store.KeyDiscipline, func(r model.DisciplineRecord) string { return r.ID }, nil)}
}

type Library struct {
	*collection[model.LibraryBook]
}

func NewLibrary(g store.Gateway) *Library {
	return &Library{newCollection(g, store.KeyLibrary, func(b model.LibraryBook) string { return b.ID }, nil)}
}

// News keeps the newest item first; use Prepend to publish.
type News struct {
	*collection[model.NewsItem]
}

func NewNews(g store.Gateway) *News {
	return &News{newCollection(g, store.KeyNews, func(n model.NewsItem) string { return n.ID }, nil)}
}
