package device

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

// ContentType is the media type of the rendered description document.
const ContentType = `text/xml; charset="utf-8"`

type descriptionRoot struct {
	XMLName     xml.Name          `xml:"urn:schemas-upnp-org:device-1-0 root"`
	SpecVersion specVersion       `xml:"specVersion"`
	URLBase     string            `xml:"URLBase,omitempty"`
	Device      descriptionDevice `xml:"device"`
}

type specVersion struct {
	Major int `xml:"major"`
	Minor int `xml:"minor"`
}

type descriptionDevice struct {
	DeviceType       string `xml:"deviceType"`
	FriendlyName     string `xml:"friendlyName"`
	Manufacturer     string `xml:"manufacturer"`
	ModelDescription string `xml:"modelDescription,omitempty"`
	ModelName        string `xml:"modelName"`
	UDN              string `xml:"UDN"`
	PresentationURL  string `xml:"presentationURL,omitempty"`
}

// Render encodes r as a UPnP device description document. The output only
// depends on the value of r.
func Render(r *Record) ([]byte, error) {
	root := descriptionRoot{
		SpecVersion: specVersion{Major: 1, Minor: 0},
		URLBase:     r.LocationURL,
		Device: descriptionDevice{
			DeviceType:       r.DeviceType,
			FriendlyName:     r.FriendlyName,
			Manufacturer:     r.Manufacturer,
			ModelDescription: r.ModelDescription,
			ModelName:        r.ModelName,
			UDN:              r.UDN(),
			PresentationURL:  r.PresentationURL,
		},
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("encode description document: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
