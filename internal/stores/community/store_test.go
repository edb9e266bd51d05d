package community

import "testing"

func TestJoinLeave(t *testing.T) {
	store := NewStore()

	store.Join("gophers")
	if !store.Joined("gophers") {
		t.Fatal("joined community not reported")
	}
	store.Leave("gophers")
	if store.Joined("gophers") {
		t.Fatal("left community still reported")
	}
}

func TestToggle(t *testing.T) {
	store := NewStore()

	if !store.Toggle("gophers") {
		t.Fatal("first toggle should join")
	}
	if store.Toggle("gophers") {
		t.Fatal("second toggle should leave")
	}
	if store.Joined("gophers") {
		t.Fatal("membership must be gone after the second toggle")
	}
}

func TestEmptyIDIgnored(t *testing.T) {
	store := NewStore()
	store.Join("")
	if store.Toggle("") {
		t.Fatal("empty id must not join")
	}
	if len(store.List()) != 0 {
		t.Fatalf("List() = %v, want empty", store.List())
	}
}

func TestListReturnsJoined(t *testing.T) {
	store := NewStore()
	store.Join("a")
	store.Join("b")
	if got := store.List(); len(got) != 2 {
		t.Fatalf("List() = %v", got)
	}
}
