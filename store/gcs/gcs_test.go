package gcs

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	stderrs "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/hummearth/hive"
	"github.com/hummearth/hive/testutil"
)

var testTime = time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)

func TestObjectNames(t *testing.T) {
	ref := hive.Ref{0xab}
	got, err := refFromObjName(updatePrefix(hive.Ref{1}) + timeKey(testTime) + ":" + ref.String())
	if err != nil {
		t.Fatal(err)
	}
	if got != ref {
		t.Errorf("got %s, want %s", got, ref)
	}

	base := hive.Path{"x"}.Hash()
	at, got, err := timedObjName(linkPrefix(base, hive.Reader) + timeKey(testTime) + ":" + ref.String())
	if err != nil {
		t.Fatal(err)
	}
	if got != ref || !at.Equal(testTime) {
		t.Errorf("got %s at %s, want %s at %s", got, at, ref, testTime)
	}
	if _, _, err := timedObjName(revisionObjName(ref)); err == nil {
		t.Error("got no error for an untimed object name")
	}

	// One namespace's prefix must not match another's.
	if p1, p10 := linkPrefix(base, 1), linkPrefix(base, 10); len(p10) > len(p1) && p10[:len(p1)] == p1 {
		t.Errorf("prefix %s is a prefix of %s", p1, p10)
	}
}

func TestStoreErr(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{{
		err: &googleapi.Error{Code: http.StatusServiceUnavailable}, want: true,
	}, {
		err: &googleapi.Error{Code: http.StatusForbidden}, want: true,
	}, {
		err: errors.Wrap(&googleapi.Error{Code: http.StatusTooManyRequests}, "listing"), want: true,
	}, {
		err: &googleapi.Error{Code: http.StatusNotFound},
	}, {
		err: &googleapi.Error{Code: http.StatusBadRequest},
	}, {
		err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, want: true,
	}, {
		err: storage.ErrObjectNotExist,
	}, {
		err: io.ErrUnexpectedEOF,
	}}

	for i, c := range cases {
		t.Run(fmt.Sprintf("case_%02d", i+1), func(t *testing.T) {
			got := stderrs.Is(storeErr(c.err), hive.ErrStoreUnavailable)
			if got != c.want {
				t.Errorf("got %v, want %v", got, c.want)
			}
			if !stderrs.Is(storeErr(c.err), c.err) {
				t.Error("lost the original error")
			}
		})
	}
}

const (
	credsVar = "HIVE_GCS_TESTING_CREDS"
	projVar  = "HIVE_GCS_TESTING_PROJECT"
)

func TestLedger(t *testing.T) {
	var (
		creds     = os.Getenv(credsVar)
		projectID = os.Getenv(projVar)
	)
	if creds == "" || projectID == "" {
		t.Skipf("to run TestLedger, set %s to the name of a credentials file and %s to a project ID", credsVar, projVar)
	}

	var r [30]byte
	_, err := rand.Read(r[:])
	if err != nil {
		t.Fatal(err)
	}
	bucketName := hex.EncodeToString(r[:])

	ctx := context.Background()

	client, err := storage.NewClient(ctx, option.WithCredentialsFile(creds))
	if err != nil {
		t.Fatal(err)
	}

	t.Logf("creating bucket %s in project %s", bucketName, projectID)

	bucket := client.Bucket(bucketName)
	err = bucket.Create(ctx, projectID, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer bucket.Delete(ctx)

	testutil.Revisions(ctx, t, New(bucket, "alice"))
	testutil.Links(ctx, t, New(bucket, "alice"))
}
