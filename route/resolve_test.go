package route

import "testing"

func TestResolveHTTPPathSubstitutesCaptures(t *testing.T) {
	routes, err := ParsePhrase("'8080/(version)/api' to 'https://some.site/api/(version)'")
	if err != nil {
		t.Fatalf("ParsePhrase failed: %v", err)
	}
	up := routes[0].Dst.(HTTPUpstream)
	got, err := ResolveHTTPPath(up, map[string]string{"version": "v2"})
	if err != nil {
		t.Fatalf("ResolveHTTPPath failed: %v", err)
	}
	if got != "/api/v2" {
		t.Errorf("got %q", got)
	}
}

func TestResolveHTTPPathAppendsPrefixTail(t *testing.T) {
	routes, err := ParsePhrase("'8080/api' to 'https://some.site/backend'")
	if err != nil {
		t.Fatalf("ParsePhrase failed: %v", err)
	}
	up := routes[0].Dst.(HTTPUpstream)
	got, err := ResolveHTTPPath(up, map[string]string{TailKey: "widgets/7"})
	if err != nil {
		t.Fatalf("ResolveHTTPPath failed: %v", err)
	}
	if got != "/backend/widgets/7" {
		t.Errorf("got %q", got)
	}
}

func TestResolveHTTPPathMissingCaptureErrors(t *testing.T) {
	routes, err := ParsePhrase("'8080/(id)' to 'https://some.site/items/(id)'")
	if err != nil {
		t.Fatalf("ParsePhrase failed: %v", err)
	}
	up := routes[0].Dst.(HTTPUpstream)
	if _, err := ResolveHTTPPath(up, map[string]string{}); err == nil {
		t.Fatal("expected a ResolveError for a missing capture")
	}
}

func TestResolveFilePathWithVarRest(t *testing.T) {
	routes, err := ParsePhrase("'8080/static/(rest..)' to './public/(rest..)'")
	if err != nil {
		t.Fatalf("ParsePhrase failed: %v", err)
	}
	f := routes[0].Dst.(File)
	got, err := ResolveFilePath(f, map[string]string{"rest": "css/app.css"})
	if err != nil {
		t.Fatalf("ResolveFilePath failed: %v", err)
	}
	if got != "./public/css/app.css" {
		t.Errorf("got %q", got)
	}
}

func TestHasTraversalRejectsDotDotInCapturedValue(t *testing.T) {
	if !HasTraversal(map[string]string{"rest": "../../etc/passwd"}) {
		t.Error("expected traversal to be detected")
	}
	if HasTraversal(map[string]string{"rest": "css/app.css"}) {
		t.Error("unexpected traversal detected")
	}
}
