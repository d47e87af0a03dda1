package model

// StageOutput is the typed result a stage hands back to the driver. Each stage
// has its own struct carrying exactly the fields that stage produces; the
// repository merges them into the named columns of the book record. There is
// deliberately no generic key/value bag.
type StageOutput interface {
	stageOutput()
}

// FetchOutput is produced by the catalog fetch stage.
type FetchOutput struct {
	BookFilePath string
}

// SummarizeOutput is produced by the podcast summary stage.
type SummarizeOutput struct {
	PodcastFilePath string
}

// RenderOutput is produced by the audiobook render stage. The path refers to a
// directory holding the rendered part files.
type RenderOutput struct {
	AudiobookDirPath string
}

// PublishOutput is produced by the drive publish stage. FolderID empty means
// the publish failed, even if some per-file uploads went through.
type PublishOutput struct {
	FolderID         string
	BookFileID       string
	PodcastFileID    string
	AudiobookFileIDs []string
}

func (FetchOutput) stageOutput()     {}
func (SummarizeOutput) stageOutput() {}
func (RenderOutput) stageOutput()    {}
func (PublishOutput) stageOutput()   {}
