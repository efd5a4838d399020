package model

import "testing"

func TestGenreIsValid(t *testing.T) {
	valid := []Genre{
		GenreRock, GenrePop, GenreJazz, GenreClassical, GenreElectronic,
		GenreHipHop, GenreCountry, GenreRB, GenreMetal, GenreIndie, GenreOther,
	}
	for _, g := range valid {
		if !g.IsValid() {
			t.Errorf("expected %q to be valid", g)
		}
	}

	invalid := []Genre{"", "polka", "Rock", "hip hop", "hiphop", "r&b"}
	for _, g := range invalid {
		if g.IsValid() {
			t.Errorf("expected %q to be invalid", g)
		}
	}
}
