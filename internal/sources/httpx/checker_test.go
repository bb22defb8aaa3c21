package httpx

import (
	"context"
	"testing"
	"time"

	"subterra/internal/core/domain"
	"subterra/internal/platform/errors"
	"subterra/internal/platform/logx"
	"subterra/internal/testutil"
)

// fakeHTTPX answers from a tiny table keyed by the -u argument.
const fakeHTTPX = `
host=""
while [ $# -gt 0 ]; do
  case "$1" in
    -u) host="$2"; shift ;;
  esac
  shift
done
case "$host" in
  www.*)   echo '{"url":"https://'"$host"'","input":"'"$host"'","status_code":200,"title":"Home","failed":false}' ;;
  gone.*)  echo '{"url":"https://'"$host"'","input":"'"$host"'","status_code":404,"failed":false}' ;;
  moved.*) echo '{"url":"https://'"$host"'","status_code":404}'; echo '{"url":"http://'"$host"'","status_code":301}' ;;
  noise.*) echo "[INF] banner"; echo '{"url":"http://'"$host"'","status_code":"oops"}' ;;
  broken.*) echo "fatal" >&2; exit 2 ;;
  slow.*)  exec sleep 10 ;;
  *) ;;
esac
`

func newFakeChecker(t *testing.T, cfg Config) *Checker {
	t.Helper()
	testutil.RequireShell(t)
	cfg.Binary = testutil.WriteScript(t, t.TempDir(), "httpx", fakeHTTPX)
	return New(cfg, logx.NewSilent())
}

func TestChecker_Check(t *testing.T) {
	c := newFakeChecker(t, Config{})

	tests := []struct {
		name       domain.Hostname
		wantLive   bool
		wantStatus int
		wantErr    bool
	}{
		{name: "www.example.com", wantLive: true, wantStatus: 200},
		{name: "gone.example.com", wantLive: false, wantStatus: 404},
		{name: "moved.example.com", wantLive: true, wantStatus: 301},
		{name: "noise.example.com", wantLive: false},
		{name: "silent.example.com", wantLive: false},
		{name: "broken.example.com", wantLive: false, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			res := c.Check(context.Background(), tt.name)
			testutil.AssertEqual(t, res.Live, tt.wantLive, "live")
			testutil.AssertEqual(t, res.StatusCode, tt.wantStatus, "status")
			if tt.wantErr {
				testutil.AssertErrorIs(t, res.Err, errors.ErrProbeFailed, "probe failure")
			} else {
				testutil.AssertNoError(t, res.Err, "no error")
			}
		})
	}
}

func TestChecker_MatchPolicy(t *testing.T) {
	c := newFakeChecker(t, Config{Policy: &domain.StatusPolicy{Match: []string{"200"}}})

	testutil.AssertTrue(t, c.Check(context.Background(), "www.example.com").Live, "200 matches")
	testutil.AssertFalse(t, c.Check(context.Background(), "moved.example.com").Live, "301 not in match list")
}

func TestChecker_Timeout(t *testing.T) {
	c := newFakeChecker(t, Config{Timeout: 100 * time.Millisecond})

	start := time.Now()
	res := c.Check(context.Background(), "slow.example.com")

	testutil.AssertFalse(t, res.Live, "not live")
	testutil.AssertErrorIs(t, res.Err, errors.ErrProbeFailed, "probe failure")
	testutil.AssertTrue(t, time.Since(start) < 5*time.Second, "process stopped")
}

func TestChecker_Preflight(t *testing.T) {
	c := New(Config{Binary: "/nonexistent/httpx"}, logx.NewSilent())
	testutil.AssertTrue(t, errors.IsConfigError(c.Preflight()), "missing binary is a config error")

	ok := newFakeChecker(t, Config{})
	testutil.AssertNoError(t, ok.Preflight(), "script resolves")
}

func TestParseResponses(t *testing.T) {
	out := []byte("[INF] v1.6\n{\"url\":\"https://a.example.com\",\"status_code\":200}\n{bad json\n\n{\"url\":\"http://b.example.com\",\"status_code\":403,\"failed\":\"false\"}\n")

	responses, err := parseResponses(out)
	testutil.AssertError(t, err, "first decode error reported")
	testutil.AssertLen(t, responses, 2, "valid lines kept")
	testutil.AssertEqual(t, responses[1].StatusCode, 403, "second status")
}
