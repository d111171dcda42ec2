package transfer

import (
	"fmt"
	"strconv"

	"github.com/octaspace/transfer-manager/internal/remote"
	"github.com/octaspace/transfer-manager/internal/version"
)

// jobCreationDocument is the document posted to the queue manager's
// node_job endpoint on upload success (SPEC_FULL.md §4.I). Both top-level
// keys are data the render node consumes verbatim; the daemon does not
// interpret "operations" beyond building it.
type jobCreationDocument struct {
	JobData    jobDataPayload    `json:"job_data"`
	Operations []sarfisOperation `json:"operations"`
}

type jobDataPayload struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	Status         string              `json:"status"`
	Start          int                 `json:"start"`
	BatchSize      int                 `json:"batch_size"`
	End            int                 `json:"end"`
	FrameStep      int                 `json:"frame_step"`
	RenderPasses   []remote.RenderPass `json:"render_passes"`
	RenderFormat   string              `json:"render_format"`
	Version        string              `json:"version"`
	RenderEngine   string              `json:"render_engine"`
	BlenderVersion string              `json:"blender_version"`
	ArchiveSize    int64               `json:"archive_size"`
}

// sarfisOperation is one step of a job's execution plan on the render
// node, emitted verbatim (original_source/transfer_manager/
// sarfis_operations.py get_operations()). Argument/variable values
// containing "{...}" are the render node's own template expressions
// (job_id, node_folder, node_gpu_index, node_task, ...), evaluated by the
// node at execution time — the daemon does not interpret or substitute
// them.
type sarfisOperation struct {
	Operation string                 `json:"operation"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
	Variables []string               `json:"variables,omitempty"`
}

// deriveFrameEnd implements the batch/step-aware end derivation from
// SPEC_FULL.md §4.I.
func deriveFrameEnd(start, endInput, batchSize, frameStep int) int {
	switch {
	case batchSize > 1:
		totalFrames := endInput - start + 1
		return start + totalFrames/batchSize - 1
	case frameStep > 1:
		return (endInput-start)/frameStep + start
	default:
		return endInput
	}
}

func stopwatchOp(action, name string) sarfisOperation {
	return sarfisOperation{
		Operation: "stopwatch",
		Arguments: map[string]interface{}{"action": action, "name": name},
	}
}

// downloadUnzipOp fetches and extracts the uploaded archive. url is the
// archive's R2 location (node-side "{job_id}" template intact, api token
// and hash resolved by the daemon at build time).
func downloadUnzipOp(archiveURL, zipHash string) sarfisOperation {
	return sarfisOperation{
		Operation: "exe",
		Arguments: map[string]interface{}{"input": "python", "one_shot": true},
		Variables: []string{
			"assets/scripts/files/unzip.py",
			"--zip", "{node_folder}/{job_id}/input/package.zip",
			"--extract-folder", "{node_folder}/{job_id}/input/",
			"--url", archiveURL,
			"--hash", zipHash,
			"--dont-ensure-exists",
		},
	}
}

// printInputFolderScript walks and prints the extracted input folder,
// equivalent to print_input_folder_func in sarfis_operations.py. The
// Python original wraps the function source itself (base64'd, via
// inspect.getsource/exec) so it can run standalone on the node without
// importing the daemon's code; the daemon has no equivalent of Python's
// inspect/exec self-serialization, so this ships the same logic as a
// plain "python -c" script instead of that wrapper.
const printInputFolderScript = `import os
folder = "{node_folder}/{job_id}/input/"
single_indent = "  "
for root, dirs, files in os.walk(folder):
    level = root.replace(folder, "").count(os.sep)
    indent = single_indent * level
    print(f"{indent}{os.path.basename(root)}/")
    subindent = indent + single_indent
    for f in files:
        print(f"{subindent}-{f}")`

func printInputFolderOp() sarfisOperation {
	return sarfisOperation{
		Operation: "exe",
		Arguments: map[string]interface{}{"input": "python"},
		Variables: []string{"-c", printInputFolderScript},
	}
}

// blenderOp renders one node task's frame range. frameStep>1 switches the
// frame-start/end template expressions the node evaluates, matching
// blender()'s frame_step branch.
func blenderOp(blendFileName, renderFormat string, frameStep int) sarfisOperation {
	frameStartExpr := "{job_start + (node_task-job_start) * job_batch_size}"
	frameEndExpr := "{job_start + (node_task-job_start+1) * job_batch_size - 1}"
	if frameStep > 1 {
		frameStartExpr = "{job_start + ((node_task - job_start) * job_frame_step)}"
		frameEndExpr = frameStartExpr
	}

	return sarfisOperation{
		Operation: "exe",
		Arguments: map[string]interface{}{"input": `{eval(f"node_{job_blender_version}")}`},
		Variables: []string{
			"-b", "{node_folder}/{job_id}/input/" + blendFileName,
			"-y",
			"-s", frameStartExpr,
			"-e", frameEndExpr,
			"-F", renderFormat,
			"-o", `{node_folder}/{job_id}/{str(node_gpu_index).replace(",", "_")}/output/`,
			"-P", "/srv/sarfis-pro-node/assets/scripts/blender/octa.py",
			"-a",
			"--",
			"-enable_devices",
			`[{str(node_gpu_index).replace(",", "_")}]`,
		},
	}
}

func thumbnailsOp(maxSize int) sarfisOperation {
	return sarfisOperation{
		Operation: "exe",
		Arguments: map[string]interface{}{"input": "python"},
		Variables: []string{
			"assets/scripts/files/thumbnails.py",
			"-path", `{node_folder}/{job_id}/{str(node_gpu_index).replace(",", "_")}/output/`,
			"-size", strconv.Itoa(maxSize),
		},
	}
}

func r2UploadOp(apiToken string) sarfisOperation {
	return sarfisOperation{
		Operation: "exe",
		Arguments: map[string]interface{}{"input": "python"},
		Variables: []string{
			"assets/scripts/files/octa_r2_upload.py",
			"--folder", `{node_folder}/{job_id}/{str(node_gpu_index).replace(",", "_")}/output/`,
			"--remote-path", "{job_id}/output/",
			"--api-token", apiToken,
			"--remove-files",
		},
	}
}

func octaAnalyticsOp(frame, duration string) sarfisOperation {
	return sarfisOperation{
		Operation: "octa_analytics",
		Arguments: map[string]interface{}{"frame": frame, "duration": duration},
	}
}

// buildOperations assembles the execution plan in get_operations()'s exact
// order: start the frame stopwatch, fetch+extract the archive, print the
// extracted tree, render, generate thumbnails, push output to R2, stop the
// stopwatch, and record the analytics marker.
func buildOperations(u *uploadState, ud remote.UserData, archiveURL string) []sarfisOperation {
	info := u.JobInfo
	return []sarfisOperation{
		stopwatchOp("start", "frame"),
		downloadUnzipOp(archiveURL, u.FileHash),
		printInputFolderOp(),
		blenderOp(info.BlendName, info.RenderFormat, info.FrameStep),
		thumbnailsOp(info.ThumbnailSize),
		r2UploadOp(ud.APIToken),
		stopwatchOp("stop", "frame"),
		octaAnalyticsOp("{node_task}", "{stopwatch_frame}"),
	}
}

// buildJobCreationDocument assembles the job_data/operations document from
// an Upload's job metadata, once its archive has finished uploading.
func buildJobCreationDocument(u *uploadState, ud remote.UserData) jobCreationDocument {
	info := u.JobInfo
	end := deriveFrameEnd(info.Start, info.End, info.BatchSize, info.FrameStep)

	data := jobDataPayload{
		ID:             u.JobID,
		Name:           info.Name,
		Status:         "queued",
		Start:          info.Start,
		BatchSize:      info.BatchSize,
		End:            end,
		FrameStep:      info.FrameStep,
		RenderPasses:   info.RenderPasses,
		RenderFormat:   info.RenderFormat,
		Version:        version.Version,
		RenderEngine:   info.RenderEngine,
		BlenderVersion: info.BlenderVersion,
		ArchiveSize:    u.FileSize,
	}

	// "{job_id}" is left as a literal node-side template expression, not
	// substituted here — the render node resolves it from job_data.id at
	// execution time, matching download_unzip()'s own f-string escaping.
	archiveURL := fmt.Sprintf("%s/{job_id}/input/package.zip?octa_api_token=%s", ud.FarmHost, ud.APIToken)

	return jobCreationDocument{
		JobData:    data,
		Operations: buildOperations(u, ud, archiveURL),
	}
}
