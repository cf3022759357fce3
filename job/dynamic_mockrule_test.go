package job

import (
	"os"
	"path/filepath"
	"testing"

	gomock "github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/fugue/flowrun/iofile"
	"github.com/fugue/flowrun/rule"
)

// TestDynamicExpansionCallsSetInputAndSetDynamicOnDependent exercises
// expandDynamicOutput against a gomock-scripted Rule instead of the
// package's hand-rolled fakeRule, verifying the exact SetInput/SetDynamic
// sequence a dependent's rule sees once its dynamic input pattern resolves.
func TestDynamicExpansionCallsSetInputAndSetDynamicOnDependent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dir := t.TempDir()
	pattern := filepath.Join(dir, "{sample}.txt")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0644))

	producerRule := &fakeRule{name: "split", dynamic: map[string]bool{pattern: true}}
	producer := New(Opts{
		Rule:          producerRule,
		Output:        []iofile.IOFile{iofile.New(pattern)},
		DynamicOutput: true,
	})

	mockRule := rule.NewMockRule(ctrl)
	mockRule.EXPECT().Input().Return([]string{pattern}).AnyTimes()
	mockRule.EXPECT().IsDynamic(pattern).Return(true).AnyTimes()
	mockRule.EXPECT().SetInput([]string{filepath.Join(dir, "a.txt")})
	mockRule.EXPECT().SetDynamic(pattern, false)
	mockRule.EXPECT().Name().Return("merge").AnyTimes()
	mockRule.EXPECT().Run(gomock.Any(), gomock.Any(), false).
		Return(New(Opts{Rule: mockRule}), nil)

	dependent := New(Opts{Rule: mockRule, Depends: []*Job{producer}})
	producer.SetScheduler(&fakeScheduler{})

	require.NoError(t, producer.expandDynamicOutput())
	require.True(t, dependent.Ignore)
}
