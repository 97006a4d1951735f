package api

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// UngroupedKey holds the issues of a page whose results came back as a
// flat list.
const UngroupedKey = "All Issues"

type issuePageWire struct {
	GroupedBy       *string         `json:"grouped_by"`
	NextCursor      string          `json:"next_cursor"`
	PrevCursor      string          `json:"prev_cursor"`
	NextPageResults bool            `json:"next_page_results"`
	TotalCount      int             `json:"total_count"`
	TotalResults    int             `json:"total_results"`
	Results         json.RawMessage `json:"results"`
}

type groupWire struct {
	Results      json.RawMessage `json:"results"`
	TotalResults *int            `json:"total_results"`
}

func decodeIssuePage(endpoint string, body []byte) (IssuePage, error) {
	var wire issuePageWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return IssuePage{}, decodeError(endpoint, "", err)
	}
	results := bytes.TrimSpace(wire.Results)
	if len(results) == 0 || bytes.Equal(results, []byte("null")) {
		return IssuePage{}, decodeError(endpoint, "results", fmt.Errorf("missing value"))
	}

	page := IssuePage{
		NextCursor:      wire.NextCursor,
		PrevCursor:      wire.PrevCursor,
		NextPageResults: wire.NextPageResults,
		TotalCount:      wire.TotalCount,
		TotalResults:    wire.TotalResults,
		Groups:          map[string]GroupPage{},
	}
	if wire.GroupedBy != nil {
		page.GroupedBy = *wire.GroupedBy
	}

	switch results[0] {
	case '[':
		issues, err := decodeIssues(endpoint, "results", results)
		if err != nil {
			return IssuePage{}, err
		}
		total := wire.TotalCount
		if total < len(issues) {
			total = len(issues)
		}
		page.Groups[UngroupedKey] = GroupPage{Issues: issues, TotalResults: total}
		page.Order = []string{UngroupedKey}
	case '{':
		keys, values, err := orderedObject(results)
		if err != nil {
			return IssuePage{}, decodeError(endpoint, "results", err)
		}
		for _, key := range keys {
			group, err := decodeGroup(endpoint, "results."+key, values[key])
			if err != nil {
				return IssuePage{}, err
			}
			page.Groups[key] = group
			page.Order = append(page.Order, key)
		}
	default:
		return IssuePage{}, decodeError(endpoint, "results", fmt.Errorf("expected object or array"))
	}
	return page, nil
}

// decodeGroup accepts either {"results": [...], "total_results": n} or a
// bare issue array.
func decodeGroup(endpoint, field string, raw json.RawMessage) (GroupPage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		issues, err := decodeIssues(endpoint, field, raw)
		if err != nil {
			return GroupPage{}, err
		}
		return GroupPage{Issues: issues, TotalResults: len(issues)}, nil
	}
	var wire groupWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return GroupPage{}, decodeError(endpoint, field, err)
	}
	var issues []IssuePayload
	if len(bytes.TrimSpace(wire.Results)) > 0 && !bytes.Equal(bytes.TrimSpace(wire.Results), []byte("null")) {
		var err error
		issues, err = decodeIssues(endpoint, field+".results", wire.Results)
		if err != nil {
			return GroupPage{}, err
		}
	}
	total := len(issues)
	if wire.TotalResults != nil {
		if *wire.TotalResults < 0 {
			return GroupPage{}, decodeError(endpoint, field+".total_results", fmt.Errorf("negative count %d", *wire.TotalResults))
		}
		total = *wire.TotalResults
	}
	return GroupPage{Issues: issues, TotalResults: total}, nil
}

func decodeIssues(endpoint, field string, raw json.RawMessage) ([]IssuePayload, error) {
	var issues []IssuePayload
	if err := json.Unmarshal(raw, &issues); err != nil {
		return nil, decodeError(endpoint, field, err)
	}
	for i, issue := range issues {
		if missing := checkIssue(issue); missing != "" {
			return nil, decodeError(endpoint, fmt.Sprintf("%s[%d].%s", field, i, missing), fmt.Errorf("missing value"))
		}
	}
	return issues, nil
}

func decodeIssue(endpoint string, body []byte) (IssuePayload, error) {
	var issue IssuePayload
	if err := json.Unmarshal(body, &issue); err != nil {
		return IssuePayload{}, decodeError(endpoint, "", err)
	}
	if missing := checkIssue(issue); missing != "" {
		return IssuePayload{}, decodeError(endpoint, missing, fmt.Errorf("missing value"))
	}
	return issue, nil
}

// checkIssue returns the name of the first required field that is empty.
func checkIssue(issue IssuePayload) string {
	switch {
	case issue.ID == "":
		return "id"
	case issue.ProjectID == "":
		return "project_id"
	default:
		return ""
	}
}

// orderedObject decodes a JSON object keeping its key order.
func orderedObject(raw []byte) ([]string, map[string]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("expected object")
	}
	var keys []string
	values := map[string]json.RawMessage{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("unexpected token %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, nil, err
		}
		if _, seen := values[key]; !seen {
			keys = append(keys, key)
		}
		values[key] = value
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return keys, values, nil
}
