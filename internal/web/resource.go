package web

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/starford/atrium/internal/controller"
	"github.com/starford/atrium/internal/view"
)

type validatable interface {
	Validate() error
}

// resource serves one list page on top of its controller.
type resource[E controller.Entity[I], I validatable] struct {
	name   string
	prompt string
	ctrl   *controller.Controller[E, I]

	mount   func(ctx context.Context)
	table   func() view.Table
	filters func() []view.FilterControl
	form    func(in I, editing bool) view.Form
	decode  func(v url.Values) I
	label   func(e E) string
}

func (res *resource[E, I]) routes(r chi.Router) {
	r.Route("/"+res.name, func(r chi.Router) {
		r.Get("/", res.list)
		r.Post("/", res.submit)
		r.Get("/new", res.create)
		r.Post("/cancel", res.cancel)
		r.Post("/refresh", res.refresh)
		r.Post("/filter", res.filter)
		r.Get("/{id}/edit", res.edit)
		r.Get("/{id}/delete", res.confirmDelete)
		r.Post("/{id}/delete", res.remove)
	})
}

func (res *resource[E, I]) back(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/"+res.name, http.StatusSeeOther)
}

// page renders the list. override replaces the form contents, used to
// show input that failed validation before it reached the controller.
func (res *resource[E, I]) page(w http.ResponseWriter, status int, override *I, msg string) {
	snap := res.ctrl.Snapshot()
	data := listPage{
		Nav:      nav("/" + res.name),
		Resource: res.name,
		Table:    res.table(),
		Filters:  res.filters(),
		Error:    msg,
		Phase:    snap.Phase,
	}
	if snap.FormVisible {
		in := snap.Form
		if override != nil {
			in = *override
		}
		f := res.form(in, snap.Editing != nil)
		data.Form = &f
		if snap.Editing != nil {
			data.Editing = (*snap.Editing).Key()
		}
	}
	if data.Error == "" && snap.Phase == controller.PhaseError {
		if err := res.ctrl.Err(); err != nil {
			data.Error = err.Error()
		}
	}
	render(w, status, "list", data)
}

func (res *resource[E, I]) list(w http.ResponseWriter, _ *http.Request) {
	res.page(w, http.StatusOK, nil, "")
}

func (res *resource[E, I]) create(w http.ResponseWriter, _ *http.Request) {
	res.ctrl.BeginCreate()
	res.page(w, http.StatusOK, nil, "")
}

func (res *resource[E, I]) edit(w http.ResponseWriter, r *http.Request) {
	item, ok := res.ctrl.Find(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	res.ctrl.BeginEdit(item)
	res.page(w, http.StatusOK, nil, "")
}

func (res *resource[E, I]) cancel(w http.ResponseWriter, r *http.Request) {
	res.ctrl.Cancel()
	res.back(w, r)
}

func (res *resource[E, I]) refresh(w http.ResponseWriter, r *http.Request) {
	res.mount(r.Context())
	res.back(w, r)
}

func (res *resource[E, I]) filter(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	for key := range r.PostForm {
		res.ctrl.SetFilter(key, r.PostForm.Get(key))
	}
	res.back(w, r)
}

func (res *resource[E, I]) submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	in := res.decode(r.PostForm)
	if err := in.Validate(); err != nil {
		res.page(w, http.StatusUnprocessableEntity, &in, err.Error())
		return
	}
	if !res.ctrl.Submit(r.Context(), in) {
		res.page(w, http.StatusBadGateway, nil, "")
		return
	}
	res.back(w, r)
}

func (res *resource[E, I]) confirmDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	item, ok := res.ctrl.Find(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	render(w, http.StatusOK, "confirm", confirmPage{
		Nav:      nav("/" + res.name),
		Resource: res.name,
		ID:       id,
		Name:     res.label(item),
		Prompt:   res.prompt,
	})
}

// remove deletes when the confirmation form answered confirm=yes. Any
// other answer goes through the controller as a declined confirmation.
func (res *resource[E, I]) remove(w http.ResponseWriter, r *http.Request) {
	yes := r.PostFormValue("confirm") == "yes"
	ctx := controller.WithDecision(r.Context(), yes)
	if !res.ctrl.Remove(ctx, chi.URLParam(r, "id")) && yes {
		res.page(w, http.StatusBadGateway, nil, "")
		return
	}
	res.back(w, r)
}

func (res *resource[E, I]) snapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, res.ctrl.Snapshot())
}
