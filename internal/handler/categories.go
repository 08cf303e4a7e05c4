package handler

import (
	"net/http"

	"github.com/josh-kwaku/kasboek/internal/category"
)

type ruleLister interface {
	All() []category.Rule
}

func ListCategories(rules ruleLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all := rules.All()
		dtos := make([]categoryDTO, len(all))
		for i, rule := range all {
			dtos[i] = toCategoryDTO(rule)
		}
		RespondSuccess(w, http.StatusOK, dtos)
	}
}
