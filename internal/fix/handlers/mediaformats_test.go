package handlers

import (
	"testing"

	"github.com/allypost/dlhub/internal/corerr"
)

func TestClassifyCodecPassesThroughAlreadyNormalizedStreams(t *testing.T) {
	cases := []ffprobeStream{
		{CodecType: "audio", CodecName: "mp3"},
		{CodecType: "image", CodecName: "png"},
		{CodecType: "image", CodecName: "mjpeg"},
		{CodecType: "image", CodecName: "gif"},
	}
	for _, stream := range cases {
		plan, err := classifyCodec(stream, "", false, "")
		if err != nil {
			t.Errorf("classifyCodec(%+v) error = %v, want nil", stream, err)
		}
		if plan.action != codecActionSkip {
			t.Errorf("classifyCodec(%+v) action = %v, want skip", stream, plan.action)
		}
	}
}

func TestClassifyCodecH264SkipsWhenAlreadyMP4WithAAC(t *testing.T) {
	stream := ffprobeStream{CodecType: "video", CodecName: "h264"}
	plan, err := classifyCodec(stream, "mp4", true, "aac")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.action != codecActionSkip {
		t.Errorf("action = %v, want skip for an already-mp4/aac h264 file", plan.action)
	}
}

func TestClassifyCodecH264RewritesWrongContainer(t *testing.T) {
	stream := ffprobeStream{CodecType: "video", CodecName: "h264"}
	plan, err := classifyCodec(stream, "mkv", false, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.action != codecActionTranscode || plan.newExt != "mp4" {
		t.Errorf("plan = %+v, want an mp4 transcode", plan)
	}
}

func TestClassifyCodecH264RewritesNonAACAudio(t *testing.T) {
	stream := ffprobeStream{CodecType: "video", CodecName: "h264"}
	plan, err := classifyCodec(stream, "mp4", true, "mp3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.action != codecActionTranscode {
		t.Errorf("action = %v, want transcode for non-aac audio track", plan.action)
	}
}

func TestClassifyCodecTranscodesOtherVideoCodecsToMP4(t *testing.T) {
	for _, name := range []string{"mpeg4", "vp8", "vp9", "av1", "hevc"} {
		stream := ffprobeStream{CodecType: "video", CodecName: name}
		plan, err := classifyCodec(stream, "", false, "")
		if err != nil {
			t.Errorf("classifyCodec(%q) error = %v", name, err)
		}
		if plan.action != codecActionTranscode || plan.newExt != "mp4" {
			t.Errorf("classifyCodec(%q) plan = %+v, want mp4 transcode", name, plan)
		}
	}
}

func TestClassifyCodecWebpDispatchesToWebpTranscode(t *testing.T) {
	plan, err := classifyCodec(ffprobeStream{CodecType: "video", CodecName: "webp"}, "", false, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.action != codecActionTranscodeWebp {
		t.Errorf("action = %v, want codecActionTranscodeWebp", plan.action)
	}
}

func TestClassifyCodecUnknownAudioFallsBackToMP3(t *testing.T) {
	plan, err := classifyCodec(ffprobeStream{CodecType: "audio", CodecName: "opus"}, "", false, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.action != codecActionTranscode || plan.newExt != "mp3" {
		t.Errorf("plan = %+v, want an mp3 fallback for an unhandled audio codec", plan)
	}
}

func TestClassifyCodecUnknownNonAudioIsPermanentError(t *testing.T) {
	_, err := classifyCodec(ffprobeStream{CodecType: "video", CodecName: "theora"}, "", false, "")
	if !corerr.Permanent(err) {
		t.Fatalf("expected ErrPermanent for an unhandled non-audio codec, got %v", err)
	}
}
