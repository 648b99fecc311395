package bridge

// RemoteDocument is the wire shape of a document as returned by the
// external document-processing service.
type RemoteDocument struct {
	Identifier       string                 `json:"identifier"`
	CustomIdentifier string                 `json:"customIdentifier"`
	FileName         string                 `json:"fileName"`
	FileURL          string                 `json:"fileUrl"`
	ReviewURL        string                 `json:"reviewUrl"`
	Workspace        string                 `json:"workspace"`
	Collection       string                 `json:"collection"`
	State            string                 `json:"state"`
	IsConfirmed      bool                   `json:"isConfirmed"`
	InReview         bool                   `json:"inReview"`
	Failed           bool                   `json:"failed"`
	Ready            bool                   `json:"ready"`
	Validatable      bool                   `json:"validatable"`
	HasChallenges    bool                   `json:"hasChallenges"`
	CreatedDt        string                 `json:"createdDt"`
	UploadedDt       string                 `json:"uploadedDt"`
	Data             map[string]interface{} `json:"data"`
	Meta             map[string]interface{} `json:"meta"`
	Tags             []string               `json:"tags"`
}

// DocumentQuery selects a page of remote documents. Exactly one of
// Collection or Workspace is normally set; Collection wins when both are.
type DocumentQuery struct {
	Collection  string
	Workspace   string
	Offset      int
	Limit       int
	Count       bool
	IncludeData bool
}

// DocumentPage is one page of a remote document listing.
type DocumentPage struct {
	Count   int              `json:"count"`
	Results []RemoteDocument `json:"results"`
}

// RemoteWorkspace and RemoteCollection describe the remote catalog the
// local workspace/collection records mirror.
type RemoteWorkspace struct {
	Identifier   string                 `json:"identifier"`
	Name         string                 `json:"name"`
	Organization string                 `json:"organization"`
	Raw          map[string]interface{} `json:"-"`
}

type RemoteCollection struct {
	Identifier string                 `json:"identifier"`
	Name       string                 `json:"name"`
	Workspace  string                 `json:"workspace"`
	Raw        map[string]interface{} `json:"-"`
}
