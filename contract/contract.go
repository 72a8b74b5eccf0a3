//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
	"tempest-share/domain"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker is a long running task. Recovery and restarts are the supervisor's job.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName is the type name of w, used in supervisor logs.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// FileSource is the file being shared.
// ReadSlice returns exactly length bytes starting at offset, unless the file ends first.
type FileSource interface {
	Metadata() domain.FileMetadata
	ReadSlice(ctx context.Context, offset uint64, length int) ([]byte, error)
}

// Assembler turns the ordered chunks of a completed transfer into a downloadable file.
type Assembler interface {
	Assemble(meta domain.FileMetadata, chunks [][]byte) (domain.Handle, error)
	Release(handle domain.Handle) error
}
