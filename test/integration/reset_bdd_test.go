//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/eliteGoblin/wsreset/internal/domain"
	"github.com/eliteGoblin/wsreset/internal/infra"
	"github.com/eliteGoblin/wsreset/internal/policy"
	"github.com/eliteGoblin/wsreset/internal/usecase"
	"github.com/eliteGoblin/wsreset/test/fixtures"
)

var (
	hexID       = regexp.MustCompile(`^[0-9a-f]{64}$`)
	backupName  = regexp.MustCompile(`^storage\.json\.backup_\d{8}_\d{6}$`)
	forbiddenRe = regexp.MustCompile(`^(telemetry|codeium|windsurf|auth|session)`)
)

// answers is a fixed-answer confirmer.
type answers map[domain.Question]bool

func (a answers) Confirm(q domain.Question, _ string) bool { return a[q] }

// fakeGuard reports a fixed set of running processes.
type fakeGuard struct {
	running []domain.ProcessInstance
}

func (g *fakeGuard) ListRunningInstances() []domain.ProcessInstance { return g.running }
func (g *fakeGuard) Terminate(domain.ProcessInstance) bool          { return true }

func readStorage(path string) map[string]any {
	data, err := os.ReadFile(path)
	Expect(err).NotTo(HaveOccurred())
	var doc map[string]any
	Expect(json.Unmarshal(data, &doc)).To(Succeed())
	return doc
}

func backupsIn(dir string) []string {
	entries, err := os.ReadDir(dir)
	Expect(err).NotTo(HaveOccurred())
	var names []string
	for _, e := range entries {
		if backupName.MatchString(e.Name()) {
			names = append(names, e.Name())
		}
	}
	return names
}

var _ = Describe("Reset", func() {
	var (
		tmpDir   string
		fake     *fixtures.FakeWindsurfStructure
		guard    *fakeGuard
		confirm  answers
		p        domain.Policy
		newOrch  func() *usecase.Orchestrator
		storage  string
		fsys     domain.FileSystemManager
		jsonFile domain.ConfigStore
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "wsreset-integration-*")
		Expect(err).NotTo(HaveOccurred())

		fake = fixtures.NewFakeWindsurfStructure(filepath.Join(tmpDir, "Windsurf"))
		Expect(fake.Create()).To(Succeed())
		storage = fake.StoragePath()

		guard = &fakeGuard{}
		confirm = answers{
			domain.QuestionTerminate:          true,
			domain.QuestionContinueUnverified: true,
			domain.QuestionBackup:             true,
		}
		p = policy.ToPolicy(policy.NewWindsurfPolicy())
		fsys = infra.NewFileSystemManager()
		jsonFile = infra.NewJSONConfigStore()

		newOrch = func() *usecase.Orchestrator {
			return usecase.NewOrchestrator(usecase.OrchestratorConfig{
				Policy:    p,
				Root:      fake.Root,
				Guard:     guard,
				FS:        fsys,
				Backup:    infra.NewBackupManager(zap.NewNop()),
				Store:     jsonFile,
				Generator: infra.NewIdentifierGenerator(),
				Confirmer: confirm,
				Lock:      infra.NewFileRunLock(fake.Root),
				BaseCheck: infra.CheckBaseDirectory,
				Logger:    zap.NewNop(),
			})
		}
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Context("with an existing storage file", func() {
		var original string

		BeforeEach(func() {
			original = `{"telemetry.machineId": "` + strings.Repeat("a", 64) + `", "foo.bar": 1, "codeium.apiKey": "sk-ws-secret", "sessionToken": "x"}`
			Expect(fake.WriteStorage(original)).To(Succeed())
		})

		It("should replace identifiers and keep unrelated keys", func() {
			result := newOrch().Run(context.Background())
			Expect(result.Err).NotTo(HaveOccurred())
			Expect(result.State).To(Equal(domain.StateDone))

			doc := readStorage(storage)
			Expect(doc).To(HaveKeyWithValue("foo.bar", BeNumerically("==", 1)))
			Expect(doc[domain.KeyMachineID]).To(MatchRegexp(hexID.String()))
			Expect(doc[domain.KeyMachineID]).NotTo(Equal(strings.Repeat("a", 64)))
			Expect(doc[domain.KeyMacMachineID]).To(MatchRegexp(hexID.String()))
			Expect(doc[domain.KeyMachineID]).NotTo(Equal(doc[domain.KeyMacMachineID]))

			u, err := uuid.Parse(doc[domain.KeyDevDeviceID].(string))
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Version()).To(Equal(uuid.Version(4)))

			for k := range doc {
				if forbiddenRe.MatchString(k) {
					Expect(domain.IdentifierKeys).To(ContainElement(k))
				}
			}
		})

		It("should create exactly one byte-identical backup", func() {
			result := newOrch().Run(context.Background())
			Expect(result.Err).NotTo(HaveOccurred())

			names := backupsIn(filepath.Dir(storage))
			Expect(names).To(HaveLen(1))
			Expect(filepath.Join(filepath.Dir(storage), names[0])).To(Equal(result.BackupPath))

			data, err := os.ReadFile(result.BackupPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal(original))
		})

		It("should delete the present targets and nothing else", func() {
			result := newOrch().Run(context.Background())
			Expect(result.Err).NotTo(HaveOccurred())

			Expect(result.Stats.FilesDeleted + result.Stats.DirsDeleted).To(Equal(5))
			for _, path := range fake.PresentTargets() {
				Expect(path).NotTo(BeAnExistingFile())
			}
			Expect(fake.KeptFile()).To(BeAnExistingFile())
		})

		It("should not touch anything when termination is declined", func() {
			guard.running = []domain.ProcessInstance{{PID: 101, Name: "Windsurf"}, {PID: 102, Name: "Windsurf"}}
			confirm[domain.QuestionTerminate] = false

			result := newOrch().Run(context.Background())

			Expect(result.State).To(Equal(domain.StateAborted))
			Expect(result.Err).To(MatchError(domain.ErrProcessesRunning))
			data, err := os.ReadFile(storage)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal(original))
			Expect(backupsIn(filepath.Dir(storage))).To(BeEmpty())
			for _, path := range fake.PresentTargets() {
				Expect(path).To(BeAnExistingFile())
			}
		})

		It("should leave no lock file behind", func() {
			Expect(newOrch().Run(context.Background()).Err).NotTo(HaveOccurred())
			Expect(infra.NewFileRunLock(fake.Root).Path()).NotTo(BeAnExistingFile())
		})
	})

	Context("without a storage file", func() {
		It("should create one with exactly the three identifiers", func() {
			result := newOrch().Run(context.Background())
			Expect(result.Err).NotTo(HaveOccurred())
			Expect(result.Stats.BackupCreated).To(BeFalse())

			doc := readStorage(storage)
			Expect(doc).To(HaveLen(3))
			for _, k := range domain.IdentifierKeys {
				Expect(doc).To(HaveKey(k))
			}
		})
	})

	Context("with an invalid storage file", func() {
		It("should warn and write a fresh document", func() {
			Expect(fake.WriteStorage(`{"telemetry.machineId": `)).To(Succeed())

			result := newOrch().Run(context.Background())
			Expect(result.Err).NotTo(HaveOccurred())

			kinds := make([]domain.WarningKind, 0, len(result.Warnings))
			for _, w := range result.Warnings {
				kinds = append(kinds, w.Kind)
			}
			Expect(kinds).To(ContainElement(domain.WarnConfigParseInvalid))
			Expect(readStorage(storage)).To(HaveLen(3))
		})
	})

	Context("run twice", func() {
		It("should delete nothing on the second run", func() {
			Expect(newOrch().Run(context.Background()).Err).NotTo(HaveOccurred())

			second := newOrch().Run(context.Background())
			Expect(second.Err).NotTo(HaveOccurred())
			Expect(second.Stats.TotalDeleted).To(Equal(0))
		})
	})

	Context("simulate and verify", func() {
		It("should preview without changes and verify afterwards", func() {
			Expect(fake.WriteStorage(`{"telemetry.machineId": "old", "workbench.theme": "dark"}`)).To(Succeed())
			backups := infra.NewBackupManager(zap.NewNop())

			plan, err := usecase.NewSimulator(p, fsys, jsonFile, backups, guard, zap.NewNop()).Plan(fake.Root)
			Expect(err).NotTo(HaveOccurred())
			Expect(plan.PresentTargets()).To(HaveLen(5))
			Expect(plan.RemovedKeys).To(Equal([]string{"telemetry.machineId"}))
			for _, path := range fake.PresentTargets() {
				Expect(path).To(BeAnExistingFile())
			}

			snaps, err := infra.OpenSnapshotStore(filepath.Join(tmpDir, "snapshots"))
			Expect(err).NotTo(HaveOccurred())
			defer snaps.Close()

			verifier := usecase.NewVerifier(p, fsys, jsonFile, backups, snaps, zap.NewNop())
			_, err = verifier.Snapshot(fake.Root, "before")
			Expect(err).NotTo(HaveOccurred())

			Expect(newOrch().Run(context.Background()).Err).NotTo(HaveOccurred())

			report, err := verifier.Verify(fake.Root)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Comparison).NotTo(BeNil())
			Expect(report.Comparison.AllKeysChanged()).To(BeTrue())
			Expect(report.Backups).To(HaveLen(1))
			Expect(report.Passed()).To(BeTrue())
		})
	})
})
