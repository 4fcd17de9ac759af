package xhs

import (
	perr "noterelay/internal/platform/errors"
)

// permitRequest asks for a single file upload grant
type permitRequest struct {
	Biz       string `json:"biz_name"`
	FileCount int    `json:"file_count"`
	Scene     string `json:"scene"`
	Version   string `json:"version"`
}

// uploadPermit is one grant from the permit endpoint
type uploadPermit struct {
	FileID string
	Token  string
}

// permitFrom digs the first grant out of the permit response payload
func permitFrom(data map[string]any) (uploadPermit, error) {
	permits, _ := data["uploadTempPermits"].([]any)
	if len(permits) == 0 {
		return uploadPermit{}, perr.Newf(perr.ErrorCodeUnavailable, "upload permit response empty")
	}
	first, _ := permits[0].(map[string]any)
	fileIDs, _ := first["fileIds"].([]any)
	token, _ := first["token"].(string)
	if len(fileIDs) == 0 || token == "" {
		return uploadPermit{}, perr.Newf(perr.ErrorCodeUnavailable, "upload permit response malformed")
	}
	fileID, _ := fileIDs[0].(string)
	if fileID == "" {
		return uploadPermit{}, perr.Newf(perr.ErrorCodeUnavailable, "upload permit missing file id")
	}
	return uploadPermit{FileID: fileID, Token: token}, nil
}

// imageInfo describes one uploaded image in the note create body
type imageInfo struct {
	FileID   string         `json:"file_id"`
	Width    int            `json:"width"`
	Height   int            `json:"height"`
	Metadata map[string]any `json:"metadata"`
}

type privacyInfo struct {
	OpType int `json:"op_type"`
	Type   int `json:"type"`
}

type noteCommon struct {
	Type        string      `json:"type"`
	NoteID      string      `json:"note_id"`
	Source      string      `json:"source"`
	Title       string      `json:"title"`
	Desc        string      `json:"desc"`
	PrivacyInfo privacyInfo `json:"privacy_info"`
}

type noteImageInfo struct {
	Images []imageInfo `json:"images"`
}

type createNoteRequest struct {
	Common    noteCommon    `json:"common"`
	ImageInfo noteImageInfo `json:"image_info"`
}
