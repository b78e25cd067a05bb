package condcache_test

import (
	"context"
	"fmt"

	"github.com/unkn0wn-root/condcache"
	"github.com/unkn0wn-root/condcache/codec"
	"github.com/unkn0wn-root/condcache/transport/memory"
)

func Example() {
	ctx := context.Background()
	store := memory.New()
	store.Put("test-bucket", "hello.txt", []byte("hello"))

	h := condcache.New("test-bucket", "hello.txt", codec.String{})
	h, _ = h.Refresh(ctx, store)
	c, _ := h.Content()
	fmt.Println(c.Body())

	if next, _ := h.Refresh(ctx, store); next == nil {
		fmt.Println("not modified")
	}

	store.Put("test-bucket", "hello.txt", []byte("bye"))
	if next, _ := h.Refresh(ctx, store); next != nil {
		h = next
	}
	c, _ = h.Content()
	fmt.Println(c.Body())
	// Output:
	// hello
	// not modified
	// bye
}

func ExampleLoad() {
	type config struct {
		Key string `json:"key"`
	}
	store := memory.New()
	store.Put("b", "cfg.json", []byte(`{"key":"value"}`))

	h, err := condcache.Load(context.Background(), "b", "cfg.json", codec.JSON[config]{}, store)
	if err != nil {
		fmt.Println(err)
		return
	}
	c, _ := h.Content()
	fmt.Println(c.Body().Key)
	// Output: value
}
