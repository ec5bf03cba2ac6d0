package head

import (
	"context"
	"testing"

	"github.com/any-hub/headhash/internal/logging"
)

func TestNewHasherRequiresCollaborators(t *testing.T) {
	loc := fakeLocations{dir: t.TempDir(), url: "http://shop.local/", secureURL: "http://shop.local/"}
	if _, err := NewHasher(Options{Locations: loc}); err == nil {
		t.Fatalf("missing theme should fail")
	}
	if _, err := NewHasher(Options{Theme: &fakeTheme{loc: loc}}); err == nil {
		t.Fatalf("missing locations should fail")
	}
	if _, err := NewHasher(Options{Theme: &fakeTheme{loc: loc}, Locations: loc, Method: "sha1"}); err == nil {
		t.Fatalf("unknown method should fail")
	}

	hasher, err := NewHasher(Options{Theme: &fakeTheme{loc: loc}, Locations: loc, CacheEnabled: true, Logger: logging.Discard()})
	if err != nil {
		t.Fatalf("new hasher: %v", err)
	}
	if hasher.Method() != MethodVersion {
		t.Fatalf("default method should be version, got %s", hasher.Method())
	}
	if hasher.CacheEnabled() {
		t.Fatalf("cache cannot be enabled without a store")
	}
}

func TestHashStaticCachesRelativeName(t *testing.T) {
	f := newFixture(t, true, MethodVersion)
	crc := f.writeJS(t, "prototype/prototype.js", "var Prototype = {};")
	ctx := context.Background()

	got := f.hasher.HashStatic(ctx, SecureRequest(false), "prototype/prototype.js")
	want := "http://shop.local/js/prototype/prototype." + crc + ".js"
	if got != want {
		t.Fatalf("hash static = %s, want %s", got, want)
	}

	values, saves := f.store.snapshot()
	key := "head_tag_js_prototype/prototype.js"
	if saves != 1 || values[key] != "prototype/prototype."+crc+".js" {
		t.Fatalf("unexpected cache content: saves=%d values=%v", saves, values)
	}
	if tags := f.store.tags[key]; len(tags) != 1 || tags[0] != CacheGroup {
		t.Fatalf("entry should be tagged %s, got %v", CacheGroup, tags)
	}

	secure := f.hasher.HashStatic(ctx, SecureRequest(true), "prototype/prototype.js")
	if secure != "https://secure.shop.local:8443/js/prototype/prototype."+crc+".js" {
		t.Fatalf("secure url should reuse cached name with secure base, got %s", secure)
	}
	if _, saves := f.store.snapshot(); saves != 1 {
		t.Fatalf("secure lookup should hit the shared entry, saves=%d", saves)
	}
}

func TestHashStaticCacheHitSkipsFile(t *testing.T) {
	f := newFixture(t, true, MethodVersion)
	f.store.values["head_tag_js_varien/form.js"] = "varien/form.cafebabe.js"

	got := f.hasher.HashStatic(context.Background(), nil, "varien/form.js")
	if got != "http://shop.local/js/varien/form.cafebabe.js" {
		t.Fatalf("cache hit should return stored name, got %s", got)
	}
}

func TestHashStaticMissingFileNotCached(t *testing.T) {
	f := newFixture(t, true, MethodVersion)

	got := f.hasher.HashStatic(context.Background(), nil, "missing.js")
	if got != "http://shop.local/js/missing.js" {
		t.Fatalf("missing file should keep url unhashed, got %s", got)
	}
	if _, saves := f.store.snapshot(); saves != 0 {
		t.Fatalf("missing file must not be cached, saves=%d", saves)
	}

	crc := f.writeJS(t, "missing.js", "late")
	if got := f.hasher.HashStatic(context.Background(), nil, "missing.js"); got != "http://shop.local/js/missing."+crc+".js" {
		t.Fatalf("file created later should be hashed, got %s", got)
	}
}

func TestHashStaticCacheDisabledRecomputes(t *testing.T) {
	f := newFixture(t, false, MethodVersion)
	ctx := context.Background()

	first := f.writeJS(t, "app.js", "v1")
	if got := f.hasher.HashStatic(ctx, nil, "app.js"); got != "http://shop.local/js/app."+first+".js" {
		t.Fatalf("first hash = %s", got)
	}
	second := f.writeJS(t, "app.js", "v2")
	if first == second {
		t.Fatalf("different content should produce different checksums")
	}
	if got := f.hasher.HashStatic(ctx, nil, "app.js"); got != "http://shop.local/js/app."+second+".js" {
		t.Fatalf("disabled cache should recompute, got %s", got)
	}
	if f.store.loads != 0 || f.store.saves != 0 {
		t.Fatalf("disabled cache must not touch the store: loads=%d saves=%d", f.store.loads, f.store.saves)
	}
}

func TestHashStaticDeterministic(t *testing.T) {
	a := newFixture(t, false, MethodQuery)
	b := newFixture(t, false, MethodQuery)
	a.writeJS(t, "lib.js", "same content")
	b.writeJS(t, "lib.js", "same content")

	first := a.hasher.HashStatic(context.Background(), nil, "lib.js")
	second := b.hasher.HashStatic(context.Background(), nil, "lib.js")
	if first != second {
		t.Fatalf("identical content should hash identically: %s vs %s", first, second)
	}
	if first != "http://shop.local/js/lib.js?"+crcOf("same content") {
		t.Fatalf("query method url = %s", first)
	}
}

func TestHashSkinSeparatesSecureScope(t *testing.T) {
	f := newFixture(t, true, MethodVersion)
	crc := f.writeSkin(t, "css/styles.css", "body{}")
	ctx := context.Background()

	plain := f.hasher.HashSkin(ctx, SecureRequest(false), "css/styles.css")
	secure := f.hasher.HashSkin(ctx, SecureRequest(true), "css/styles.css")

	if plain != "http://shop.local/skin/"+themePath+"css/styles."+crc+".css" {
		t.Fatalf("plain skin url = %s", plain)
	}
	if secure != "https://secure.shop.local:8443/skin/"+themePath+"css/styles."+crc+".css" {
		t.Fatalf("secure skin url = %s", secure)
	}

	values, saves := f.store.snapshot()
	if saves != 2 {
		t.Fatalf("expected one entry per scope, saves=%d", saves)
	}
	if values["head_tag_skin_css/styles.css"] != plain || values["head_tag_skin_secure_css/styles.css"] != secure {
		t.Fatalf("unexpected skin entries: %v", values)
	}

	calls := f.theme.Calls()
	if again := f.hasher.HashSkin(ctx, SecureRequest(true), "css/styles.css"); again != secure {
		t.Fatalf("cached skin url = %s", again)
	}
	if f.theme.Calls() != calls {
		t.Fatalf("cache hit must not consult the theme")
	}
}

func TestHashSkinMissingFile(t *testing.T) {
	f := newFixture(t, true, MethodVersion)
	got := f.hasher.HashSkin(context.Background(), nil, "images/none.png")
	if got != "http://shop.local/skin/"+themePath+"images/none.png" {
		t.Fatalf("missing skin file should keep url, got %s", got)
	}
	if _, saves := f.store.snapshot(); saves != 0 {
		t.Fatalf("missing skin file must not be cached")
	}
}

func TestHashMerged(t *testing.T) {
	f := newFixture(t, true, MethodVersion)
	files := []string{"/srv/skin/a.css", "/srv/skin/b.css"}
	ctx := context.Background()

	target, _ := ResolveMergedTarget(f.loc, KindStylesheet, true, files)
	crc := f.writeMedia(t, target.RelPath(), "merged")
	mergedURL := f.loc.BaseURL(LocationMedia, true) + target.RelPath()

	got := f.hasher.HashMerged(ctx, SecureRequest(true), mergedURL, files, KindStylesheet)
	want := "https://secure.shop.local:8443/media/css_secure/" + target.Name[:32] + "." + crc + ".css"
	if got != want {
		t.Fatalf("merged url = %s, want %s", got, want)
	}
	values, _ := f.store.snapshot()
	if values["head_tag_url_"+mergedURL] != want {
		t.Fatalf("merged entry not cached: %v", values)
	}
}

func TestHashMergedUnknownKindOrMissingFile(t *testing.T) {
	f := newFixture(t, true, MethodVersion)
	ctx := context.Background()
	files := []string{"/srv/js/a.js"}

	if got := f.hasher.HashMerged(ctx, nil, "http://shop.local/media/x/y.bin", files, AssetKind("bin")); got != "http://shop.local/media/x/y.bin" {
		t.Fatalf("unknown kind should keep url, got %s", got)
	}
	if got := f.hasher.HashMerged(ctx, nil, "http://shop.local/media/js/none.js", files, KindScript); got != "http://shop.local/media/js/none.js" {
		t.Fatalf("missing merged file should keep url, got %s", got)
	}
	if _, saves := f.store.snapshot(); saves != 0 {
		t.Fatalf("nothing should be cached, saves=%d", saves)
	}
}
